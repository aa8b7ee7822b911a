package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/tensorgrid-dev/tensorgrid/pkg/blob"
)

func pushCmd() *cobra.Command {
	var (
		bucket  string
		prefix  string
		region  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Stage a payload in object storage",
		Long: `Upload a file to the segment staging bucket and print its key.

Calls reference staged segments by key instead of shipping the bytes
inline. AWS credentials come from the usual environment and config.

Example:
  tensorgrid push weights.bin --bucket tensorgrid-segments`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(args[0], bucket, prefix, region, timeout)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Staging bucket (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "staging/", "Key prefix inside the bucket")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "Bucket region")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Upload timeout")
	cmd.MarkFlagRequired("bucket")

	return cmd
}

func runPush(path, bucket, prefix, region string, timeout time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	store := blob.NewStore(s3.New(s3.Options{Region: region}), bucket, prefix, 0)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	key, err := store.Put(ctx, f)
	if err != nil {
		return err
	}

	fmt.Println(key)
	return nil
}
