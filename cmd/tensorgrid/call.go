package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tensorgrid-dev/tensorgrid/pkg/client"
)

func callCmd() *cobra.Command {
	var (
		url      string
		token    string
		timeout  time.Duration
		segments []string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Issue a one-shot call",
		Long: `Issue a unary call to the platform and print the JSON result.

Binary segments are attached from files with --segment; segments in the
response are written next to each other under --out-dir when set,
otherwise only their sizes are reported.

Examples:
  tensorgrid call model.list
  tensorgrid call model.predict '{"model":"resnet50"}' --segment input.bin
  tensorgrid call dataset.fetch '{"id":"d1"}' --out-dir ./out`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(url, token, timeout, args, segments, outDir)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Platform base URL (default from TENSORGRID_URL)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (default from TENSORGRID_TOKEN)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Call timeout")
	cmd.Flags().StringArrayVar(&segments, "segment", nil, "File to attach as a binary segment (repeatable)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory to write response segments into")

	return cmd
}

func runCall(url, token string, timeout time.Duration, args, segmentFiles []string, outDir string) error {
	base, err := baseURL(url)
	if err != nil {
		return err
	}

	var params any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("params are not valid JSON: %w", err)
		}
	}

	var segs [][]byte
	for _, path := range segmentFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		segs = append(segs, data)
	}

	c := client.New(&client.Config{BaseURL: base, Token: authToken(token)})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := c.CallUnary(ctx, args[0], params, segs)
	if err != nil {
		return err
	}

	var pretty any
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		} else {
			fmt.Println(string(resp.Result))
		}
	}

	for i, seg := range resp.Segments {
		if outDir == "" {
			fmt.Fprintf(os.Stderr, "segment %d: %d bytes (use --out-dir to save)\n", i, len(seg))
			continue
		}
		path := fmt.Sprintf("%s/segment-%d.bin", outDir, i)
		if err := os.WriteFile(path, seg, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "segment %d: wrote %d bytes to %s\n", i, len(seg), path)
	}
	return nil
}
