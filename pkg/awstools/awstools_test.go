// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package awstools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
)

type fakeS3 struct {
	bucketPages [][]s3types.Bucket

	listInput *s3.ListObjectsV2Input
	listOut   *s3.ListObjectsV2Output
	listErr   error

	head      *s3.HeadObjectOutput
	headErr   error
	headCalls int

	body        string
	contentType string
	getErr      error
}

func (f *fakeS3) ListBuckets(_ context.Context, in *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	page := 0
	if in.ContinuationToken != nil {
		page = 1
	}
	out := &s3.ListBucketsOutput{}
	if page < len(f.bucketPages) {
		out.Buckets = f.bucketPages[page]
	}
	if page+1 < len(f.bucketPages) {
		out.ContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInput = in
	return f.listOut, f.listErr
}

func (f *fakeS3) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headCalls++
	return f.head, f.headErr
}

func (f *fakeS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentType:   aws.String(f.contentType),
		ContentLength: aws.Int64(int64(len(f.body))),
	}, nil
}

type fakeSTS struct {
	region string
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/gw"),
		UserId:  aws.String("AIDAEXAMPLE"),
	}, nil
}

func s3Client(f *fakeS3) S3ClientFunc {
	return func(context.Context, string) (S3API, error) { return f, nil }
}

func findTool(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	reg := tool.NewRegistry(tools...)
	tl, ok := reg.Find(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	return tl
}

// run validates args the way the dispatcher does, then runs the tool.
func run(t *testing.T, tl tool.Tool, args map[string]any) (map[string]any, error) {
	t.Helper()
	var validated map[string]any
	if tl.Args != nil {
		v, issues := tl.Args.Validate(args)
		if len(issues) > 0 {
			t.Fatalf("arguments rejected: %v", issues)
		}
		validated = v
	}
	out, err := tl.Run(context.Background(), validated)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", out)
	}
	return m, nil
}

func TestS3Tools_Names(t *testing.T) {
	want := []string{
		"aws_s3_list_buckets",
		"aws_s3_list_objects",
		"aws_s3_head_object",
		"aws_s3_get_object",
		"aws_s3_wait_for_object",
	}
	tools := S3Tools(s3Client(&fakeS3{}))
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Errorf("tool %d = %s, want %s", i, tools[i].Name, name)
		}
		if tools[i].Description == "" {
			t.Errorf("tool %s has no description", name)
		}
	}
}

func TestListBuckets_AllPages(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &fakeS3{bucketPages: [][]s3types.Bucket{
		{{Name: aws.String("logs"), CreationDate: &created}},
		{{Name: aws.String("backups"), BucketRegion: aws.String("eu-west-1")}},
	}}

	out, err := run(t, findTool(t, S3Tools(s3Client(f)), "aws_s3_list_buckets"), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out["count"] != 2 {
		t.Fatalf("count = %v, want 2", out["count"])
	}
	buckets := out["buckets"].([]map[string]any)
	if buckets[0]["creation_date"] != "2024-01-02T03:04:05Z" || buckets[1]["region"] != "eu-west-1" {
		t.Errorf("buckets = %v", buckets)
	}
}

func TestListObjects(t *testing.T) {
	f := &fakeS3{listOut: &s3.ListObjectsV2Output{
		Contents: []s3types.Object{
			{Key: aws.String("logs/a.txt"), Size: aws.Int64(12), ETag: aws.String(`"abc"`), StorageClass: s3types.ObjectStorageClassStandard},
		},
		CommonPrefixes:        []s3types.CommonPrefix{{Prefix: aws.String("logs/2025/")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("tok"),
	}}
	tl := findTool(t, S3Tools(s3Client(f)), "aws_s3_list_objects")

	out, err := run(t, tl, map[string]any{"bucket": "b", "prefix": "logs/", "delimiter": "/", "max_keys": "10"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if aws.ToInt32(f.listInput.MaxKeys) != 10 || aws.ToString(f.listInput.Prefix) != "logs/" || aws.ToString(f.listInput.Delimiter) != "/" {
		t.Errorf("input = %+v", f.listInput)
	}
	if f.listInput.ContinuationToken != nil {
		t.Error("continuation token should be unset")
	}
	objects := out["objects"].([]map[string]any)
	if len(objects) != 1 || objects[0]["etag"] != "abc" || objects[0]["size"] != int64(12) || objects[0]["storage_class"] != "STANDARD" {
		t.Errorf("objects = %v", objects)
	}
	if out["is_truncated"] != true || out["next_continuation_token"] != "tok" {
		t.Errorf("pagination = %v %v", out["is_truncated"], out["next_continuation_token"])
	}
	if prefixes := out["common_prefixes"].([]string); len(prefixes) != 1 || prefixes[0] != "logs/2025/" {
		t.Errorf("common_prefixes = %v", prefixes)
	}
}

func TestListObjects_DefaultMaxKeys(t *testing.T) {
	f := &fakeS3{listOut: &s3.ListObjectsV2Output{}}
	tl := findTool(t, S3Tools(s3Client(f)), "aws_s3_list_objects")

	if _, err := run(t, tl, map[string]any{"bucket": "b"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := aws.ToInt32(f.listInput.MaxKeys); got != defaultMaxKeys {
		t.Errorf("MaxKeys = %d, want %d", got, defaultMaxKeys)
	}
}

func TestListObjects_RejectsOutOfRange(t *testing.T) {
	tl := findTool(t, S3Tools(s3Client(&fakeS3{})), "aws_s3_list_objects")

	if _, issues := tl.Args.Validate(map[string]any{"bucket": "b", "max_keys": 5000}); len(issues) == 0 {
		t.Error("expected max_keys above 1000 to be rejected")
	}
	if _, issues := tl.Args.Validate(map[string]any{}); len(issues) == 0 {
		t.Error("expected missing bucket to be rejected")
	}
}

func TestAPIErrorRendering(t *testing.T) {
	f := &fakeS3{listErr: &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}}
	tl := findTool(t, S3Tools(s3Client(f)), "aws_s3_list_objects")

	_, err := run(t, tl, map[string]any{"bucket": "missing"})
	if err == nil || err.Error() != "S3 NoSuchBucket: The specified bucket does not exist" {
		t.Errorf("error = %v", err)
	}

	if got := apiError("S3", &s3types.NotFound{}).Error(); !strings.HasPrefix(got, "S3 NotFound") {
		t.Errorf("apiError(NotFound) = %q", got)
	}
	plain := errors.New("dial tcp: connection refused")
	if got := apiError("STS", plain); !errors.Is(got, plain) {
		t.Errorf("non-API errors should be wrapped, got %v", got)
	}
}

func TestHeadObject(t *testing.T) {
	f := &fakeS3{head: &s3.HeadObjectOutput{
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(2048),
		ETag:          aws.String(`"e1"`),
		Metadata:      map[string]string{"owner": "ops"},
	}}
	out, err := run(t, findTool(t, S3Tools(s3Client(f)), "aws_s3_head_object"), map[string]any{"bucket": "b", "key": "doc.pdf"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out["content_type"] != "application/pdf" || out["content_length"] != int64(2048) || out["etag"] != "e1" {
		t.Errorf("metadata = %v", out)
	}
	if _, ok := out["version_id"]; ok {
		t.Error("version_id should be omitted when unset")
	}
}

func TestGetObject(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		key         string
		args        map[string]any
		check       func(t *testing.T, out map[string]any)
	}{
		{
			name:        "html is extracted",
			body:        "<html><body><h1>Report</h1><script>x()</script></body></html>",
			contentType: "text/html",
			key:         "index.html",
			check: func(t *testing.T, out map[string]any) {
				if out["text"] != "Report" || out["format"] != "html" {
					t.Errorf("out = %v", out)
				}
			},
		},
		{
			name: "truncated to max_bytes",
			body: "hello world",
			key:  "greeting.txt",
			args: map[string]any{"max_bytes": 5},
			check: func(t *testing.T, out map[string]any) {
				if out["text"] != "hello" || out["truncated"] != true || out["bytes_read"] != 5 {
					t.Errorf("out = %v", out)
				}
				if out["content_length"] != int64(11) {
					t.Errorf("content_length = %v, want the full size", out["content_length"])
				}
			},
		},
		{
			name: "binary is base64",
			body: "\x00\x01\x02",
			key:  "blob.bin",
			check: func(t *testing.T, out map[string]any) {
				if out["content_base64"] != "AAEC" {
					t.Errorf("out = %v", out)
				}
				if _, ok := out["text"]; ok {
					t.Error("binary body should have no text")
				}
			},
		},
		{
			name:        "raw json without extraction",
			body:        `{"a":1}`,
			contentType: "application/json",
			key:         "a.json",
			args:        map[string]any{"extract_text": "false"},
			check: func(t *testing.T, out map[string]any) {
				if out["text"] != `{"a":1}` {
					t.Errorf("text = %v, want the raw body", out["text"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeS3{body: tt.body, contentType: tt.contentType}
			args := map[string]any{"bucket": "b", "key": tt.key}
			for k, v := range tt.args {
				args[k] = v
			}
			out, err := run(t, findTool(t, S3Tools(s3Client(f)), "aws_s3_get_object"), args)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			tt.check(t, out)
		})
	}
}

func TestWaitForObject_Exists(t *testing.T) {
	f := &fakeS3{head: &s3.HeadObjectOutput{ContentLength: aws.Int64(1)}}
	out, err := run(t, findTool(t, S3Tools(s3Client(f)), "aws_s3_wait_for_object"), map[string]any{"bucket": "b", "key": "k"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.headCalls != 1 {
		t.Errorf("HeadObject called %d times, want 1", f.headCalls)
	}
	if out["key"] != "k" || out["content_length"] != int64(1) {
		t.Errorf("out = %v", out)
	}
}

func TestWaitForObject_TimesOut(t *testing.T) {
	f := &fakeS3{headErr: &s3types.NotFound{}}
	tl := findTool(t, S3Tools(s3Client(f)), "aws_s3_wait_for_object")

	_, err := run(t, tl, map[string]any{"bucket": "b", "key": "incoming/report.csv", "timeout_seconds": 1})
	if err == nil {
		t.Fatal("expected timeout")
	}
	if err.Error() != "timed out after 1s waiting for s3://b/incoming/report.csv" {
		t.Errorf("error = %q", err)
	}
}

func TestWaitForObject_FailsFast(t *testing.T) {
	f := &fakeS3{headErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}}
	tl := findTool(t, S3Tools(s3Client(f)), "aws_s3_wait_for_object")

	_, err := run(t, tl, map[string]any{"bucket": "b", "key": "k", "timeout_seconds": 5})
	if err == nil || !strings.Contains(err.Error(), "AccessDenied") {
		t.Errorf("error = %v, want AccessDenied", err)
	}
}

func TestSTSTools_GetCallerIdentity(t *testing.T) {
	var gotRegion string
	tools := STSTools(func(_ context.Context, region string) (STSAPI, error) {
		gotRegion = region
		return &fakeSTS{region: region}, nil
	})

	out, err := run(t, findTool(t, tools, "aws_sts_get_caller_identity"), map[string]any{"region": "eu-central-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotRegion != "eu-central-1" {
		t.Errorf("region = %q", gotRegion)
	}
	if out["account"] != "123456789012" || out["user_id"] != "AIDAEXAMPLE" {
		t.Errorf("out = %v", out)
	}
}

func TestClientErrorIsToolError(t *testing.T) {
	tools := STSTools(func(context.Context, string) (STSAPI, error) {
		return nil, errors.New("load aws config: no credentials")
	})
	if _, err := run(t, findTool(t, tools, "aws_sts_get_caller_identity"), nil); err == nil {
		t.Error("expected client construction error to surface")
	}
}

func TestBuild(t *testing.T) {
	tools, err := Build(context.Background(), nil, Options{Region: "us-east-1"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tools) != 6 {
		t.Errorf("default toolsets produced %d tools, want 6", len(tools))
	}

	tools, err = Build(context.Background(), []string{"sts"}, Options{})
	if err != nil || len(tools) != 1 {
		t.Errorf("Build(sts) = %d tools, %v", len(tools), err)
	}

	if _, err := Build(context.Background(), []string{"ec2"}, Options{}); err == nil {
		t.Error("expected error for unknown toolset")
	}
}

func TestClientsFor_Shared(t *testing.T) {
	a := clientsFor(Options{Region: "us-east-1"})
	b := clientsFor(Options{Region: "us-east-1"})
	c := clientsFor(Options{Region: "us-west-2"})
	if a != b || a == c {
		t.Error("clients should be shared per options")
	}
}

func TestClients_RegionCacheBounded(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")

	c := NewClients(Options{Region: "us-east-1"})
	ctx := context.Background()

	first, err := c.STS(ctx, "")
	if err != nil {
		t.Fatalf("STS: %v", err)
	}
	again, _ := c.STS(ctx, "us-east-1")
	if first != again {
		t.Error("default region and explicit default region should share a client")
	}

	for i := 0; i < maxCachedRegions+8; i++ {
		if _, err := c.STS(ctx, fmt.Sprintf("test-region-%d", i)); err != nil {
			t.Fatalf("STS: %v", err)
		}
	}
	if n := c.sts.Len(); n != maxCachedRegions {
		t.Errorf("cached %d clients, want %d", n, maxCachedRegions)
	}
	if c.sts.Contains("us-east-1") {
		t.Error("least recently used region should have been evicted")
	}
}
