// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package awstools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
	"github.com/leseb/aws-mcp-gw/pkg/extractor"
)

const (
	defaultMaxKeys     = 100
	defaultMaxBytes    = 1 << 20
	maxObjectBytes     = 10 << 20
	defaultWaitSeconds = 60
	maxWaitSeconds     = 900
	s3Service          = "S3"
	waiterExceeded     = "exceeded max wait time"
)

func init() {
	Toolsets.Register("s3", func(_ context.Context, params map[string]string) ([]tool.Tool, error) {
		return S3Tools(clientsFor(optionsFromParams(params)).S3), nil
	})
}

type s3Tools struct {
	client S3ClientFunc
	// waitMinDelay overrides the waiter's minimum poll interval; zero keeps
	// the SDK default.
	waitMinDelay time.Duration
}

// S3Tools returns the S3 toolset backed by client.
func S3Tools(client S3ClientFunc) []tool.Tool {
	return (&s3Tools{client: client}).tools()
}

func (s *s3Tools) tools() []tool.Tool {
	bucket := map[string]any{"type": "string", "minLength": 1, "description": "Bucket name"}
	key := map[string]any{"type": "string", "minLength": 1, "description": "Object key"}

	return []tool.Tool{
		{
			Name:        "aws_s3_list_buckets",
			Description: "List the S3 buckets owned by the caller.",
			Run:         s.listBuckets,
		},
		{
			Name:        "aws_s3_list_objects",
			Description: "List objects in an S3 bucket, one page at a time.",
			Args: schema.MustNew(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bucket":    bucket,
					"prefix":    map[string]any{"type": "string", "description": "Only keys starting with this prefix"},
					"delimiter": map[string]any{"type": "string", "description": "Group keys sharing a prefix up to this character, e.g. /"},
					"max_keys": map[string]any{
						"type": "integer", "minimum": 1, "maximum": 1000, "default": defaultMaxKeys,
						"description": "Maximum number of keys to return",
					},
					"continuation_token": map[string]any{"type": "string", "description": "Token from a previous truncated listing"},
					"region":             regionProperty(),
				},
				"required": []string{"bucket"},
			}),
			Run: s.listObjects,
		},
		{
			Name:        "aws_s3_head_object",
			Description: "Return the metadata of an S3 object without its body.",
			Args: schema.MustNew(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bucket": bucket,
					"key":    key,
					"region": regionProperty(),
				},
				"required": []string{"bucket", "key"},
			}),
			Run: s.headObject,
		},
		{
			Name:        "aws_s3_get_object",
			Description: "Read an S3 object. Text is extracted from PDF, HTML, CSV and JSON bodies; binary bodies are returned as base64.",
			Args: schema.MustNew(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bucket": bucket,
					"key":    key,
					"max_bytes": map[string]any{
						"type": "integer", "minimum": 1, "maximum": maxObjectBytes, "default": defaultMaxBytes,
						"description": "Read at most this many bytes",
					},
					"extract_text": map[string]any{
						"type": "boolean", "default": true,
						"description": "Convert documents to plain text",
					},
					"region": regionProperty(),
				},
				"required": []string{"bucket", "key"},
			}),
			Run: s.getObject,
		},
		{
			Name:        "aws_s3_wait_for_object",
			Description: "Wait until an S3 object exists, polling HeadObject, then return its metadata.",
			Args: schema.MustNew(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bucket": bucket,
					"key":    key,
					"timeout_seconds": map[string]any{
						"type": "integer", "minimum": 1, "maximum": maxWaitSeconds, "default": defaultWaitSeconds,
						"description": "Give up after this many seconds",
					},
					"region": regionProperty(),
				},
				"required": []string{"bucket", "key"},
			}),
			Run: s.waitForObject,
		},
	}
}

func (s *s3Tools) listBuckets(ctx context.Context, _ map[string]any) (any, error) {
	client, err := s.client(ctx, "")
	if err != nil {
		return nil, err
	}

	buckets := []map[string]any{}
	paginator := s3.NewListBucketsPaginator(client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apiError(s3Service, err)
		}
		for _, b := range page.Buckets {
			entry := map[string]any{"name": aws.ToString(b.Name)}
			if b.CreationDate != nil {
				entry["creation_date"] = b.CreationDate.UTC().Format(time.RFC3339)
			}
			if b.BucketRegion != nil {
				entry["region"] = aws.ToString(b.BucketRegion)
			}
			buckets = append(buckets, entry)
		}
	}

	return map[string]any{
		"buckets": buckets,
		"count":   len(buckets),
	}, nil
}

func (s *s3Tools) listObjects(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.client(ctx, tool.String(args, "region"))
	if err != nil {
		return nil, err
	}

	bucket := tool.String(args, "bucket")
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(tool.Int(args, "max_keys", defaultMaxKeys))),
	}
	if v := tool.String(args, "prefix"); v != "" {
		input.Prefix = aws.String(v)
	}
	if v := tool.String(args, "delimiter"); v != "" {
		input.Delimiter = aws.String(v)
	}
	if v := tool.String(args, "continuation_token"); v != "" {
		input.ContinuationToken = aws.String(v)
	}

	out, err := client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, apiError(s3Service, err)
	}

	objects := make([]map[string]any, 0, len(out.Contents))
	for _, o := range out.Contents {
		entry := map[string]any{
			"key":  aws.ToString(o.Key),
			"size": aws.ToInt64(o.Size),
		}
		if o.LastModified != nil {
			entry["last_modified"] = o.LastModified.UTC().Format(time.RFC3339)
		}
		if o.StorageClass != "" {
			entry["storage_class"] = string(o.StorageClass)
		}
		if o.ETag != nil {
			entry["etag"] = strings.Trim(aws.ToString(o.ETag), `"`)
		}
		objects = append(objects, entry)
	}

	prefixes := make([]string, 0, len(out.CommonPrefixes))
	for _, p := range out.CommonPrefixes {
		prefixes = append(prefixes, aws.ToString(p.Prefix))
	}

	result := map[string]any{
		"bucket":          bucket,
		"objects":         objects,
		"common_prefixes": prefixes,
		"key_count":       len(objects),
		"is_truncated":    aws.ToBool(out.IsTruncated),
	}
	if out.NextContinuationToken != nil {
		result["next_continuation_token"] = aws.ToString(out.NextContinuationToken)
	}
	return result, nil
}

func (s *s3Tools) headObject(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.client(ctx, tool.String(args, "region"))
	if err != nil {
		return nil, err
	}

	bucket, key := tool.String(args, "bucket"), tool.String(args, "key")
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apiError(s3Service, err)
	}
	return objectMetadata(bucket, key, out), nil
}

func objectMetadata(bucket, key string, out *s3.HeadObjectOutput) map[string]any {
	meta := map[string]any{
		"bucket":         bucket,
		"key":            key,
		"content_type":   aws.ToString(out.ContentType),
		"content_length": aws.ToInt64(out.ContentLength),
		"etag":           strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		meta["last_modified"] = out.LastModified.UTC().Format(time.RFC3339)
	}
	if out.StorageClass != "" {
		meta["storage_class"] = string(out.StorageClass)
	}
	if out.VersionId != nil {
		meta["version_id"] = aws.ToString(out.VersionId)
	}
	if len(out.Metadata) > 0 {
		meta["metadata"] = out.Metadata
	}
	return meta
}

func (s *s3Tools) getObject(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.client(ctx, tool.String(args, "region"))
	if err != nil {
		return nil, err
	}

	bucket, key := tool.String(args, "bucket"), tool.String(args, "key")
	maxBytes := tool.Int(args, "max_bytes", defaultMaxBytes)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apiError(s3Service, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	truncated := len(data) > maxBytes
	if truncated {
		data = data[:maxBytes]
	}

	contentType := aws.ToString(out.ContentType)
	result := map[string]any{
		"bucket":         bucket,
		"key":            key,
		"content_type":   contentType,
		"content_length": aws.ToInt64(out.ContentLength),
		"bytes_read":     len(data),
		"truncated":      truncated,
	}

	if !tool.Bool(args, "extract_text", true) {
		if extractor.IsText(data) {
			result["text"] = string(data)
		} else {
			result["content_base64"] = base64.StdEncoding.EncodeToString(data)
		}
		return result, nil
	}

	text, format, err := extractor.Extract(data, key, contentType)
	switch {
	case errors.Is(err, extractor.ErrBinary):
		result["content_base64"] = base64.StdEncoding.EncodeToString(data)
	case err != nil:
		return nil, fmt.Errorf("extract text from s3://%s/%s: %w", bucket, key, err)
	default:
		result["format"] = string(format)
		result["text"] = text
	}
	return result, nil
}

func (s *s3Tools) waitForObject(ctx context.Context, args map[string]any) (any, error) {
	client, err := s.client(ctx, tool.String(args, "region"))
	if err != nil {
		return nil, err
	}

	bucket, key := tool.String(args, "bucket"), tool.String(args, "key")
	seconds := tool.Int(args, "timeout_seconds", defaultWaitSeconds)
	timeout := time.Duration(seconds) * time.Second

	waiter := s3.NewObjectExistsWaiter(client, func(o *s3.ObjectExistsWaiterOptions) {
		if s.waitMinDelay > 0 {
			o.MinDelay = s.waitMinDelay
		}
	})

	start := time.Now()
	out, err := waiter.WaitForOutput(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, timeout)
	if err != nil {
		if strings.Contains(err.Error(), waiterExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %ds waiting for s3://%s/%s", seconds, bucket, key)
		}
		return nil, apiError(s3Service, err)
	}

	meta := objectMetadata(bucket, key, out)
	meta["waited_ms"] = time.Since(start).Milliseconds()
	return meta, nil
}
