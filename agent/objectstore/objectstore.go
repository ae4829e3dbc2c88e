// Package objectstore implements an agent backed by S3 compatible object
// storage via the AWS SDK. Custom endpoints such as MinIO are supported
// through the Endpoint option, which enables path style addressing.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agentpipe/agentpipe/core"
)

// Actions supported by the agent.
const (
	ActionListBuckets  = "list_buckets"
	ActionListObjects  = "list_objects"
	ActionGetObject    = "get_object"
	ActionPutObject    = "put_object"
	ActionDeleteObject = "delete_object"
	ActionCreateBucket = "create_bucket"
)

var capabilities = []string{
	ActionListBuckets,
	ActionListObjects,
	ActionGetObject,
	ActionPutObject,
	ActionDeleteObject,
	ActionCreateBucket,
}

// maxInlineObject caps how much of an object body get_object returns.
const maxInlineObject = 10 << 20 // 10 MiB

// Config holds the storage backend settings.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string

	// Endpoint is optional and enables custom S3 compatible backends.
	Endpoint string

	// DefaultBucket is used when a request omits the bucket parameter.
	DefaultBucket string
}

// Agent talks to an S3 compatible object store.
type Agent struct {
	client        *s3.Client
	defaultBucket string
}

var _ core.Agent = (*Agent)(nil)

// New creates an object store agent from the given config.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region cannot be empty")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Agent{client: client, defaultBucket: cfg.DefaultBucket}, nil
}

// NewFromClient wraps an existing S3 client. Useful for tests.
func NewFromClient(client *s3.Client, defaultBucket string) *Agent {
	return &Agent{client: client, defaultBucket: defaultBucket}
}

// Capabilities implements core.Agent.
func (a *Agent) Capabilities() []string { return capabilities }

// Validate implements core.Agent.
func (a *Agent) Validate(req core.Request) bool {
	if !core.ActionSupported(capabilities, req.Action) {
		return false
	}

	switch req.Action {
	case ActionGetObject, ActionPutObject, ActionDeleteObject:
		return req.HasParam("key")
	case ActionCreateBucket:
		return req.HasParam("bucket")
	default:
		return true
	}
}

// Process implements core.Agent.
func (a *Agent) Process(ctx context.Context, req core.Request) (core.Response, error) {
	var (
		data any
		err  error
	)

	switch req.Action {
	case ActionListBuckets:
		data, err = a.listBuckets(ctx)
	case ActionListObjects:
		data, err = a.listObjects(ctx, req)
	case ActionGetObject:
		data, err = a.getObject(ctx, req)
	case ActionPutObject:
		data, err = a.putObject(ctx, req)
	case ActionDeleteObject:
		data, err = a.deleteObject(ctx, req)
	case ActionCreateBucket:
		data, err = a.createBucket(ctx, req)
	default:
		return core.Errorf("unsupported action: %s", req.Action), nil
	}

	if err != nil {
		return core.Errorf("%s failed: %v", req.Action, err), nil
	}

	resp := core.Ok(data)
	resp.Metadata = req.Metadata

	return resp, nil
}

func (a *Agent) bucket(req core.Request) (string, error) {
	bucket := req.StringParam("bucket", a.defaultBucket)
	if bucket == "" {
		return "", fmt.Errorf("bucket is required and no default bucket is configured")
	}
	return bucket, nil
}

func (a *Agent) listBuckets(ctx context.Context) (any, error) {
	out, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	buckets := make([]map[string]any, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		entry := map[string]any{"name": aws.ToString(b.Name)}
		if b.CreationDate != nil {
			entry["created"] = b.CreationDate.Format(time.RFC3339)
		}
		buckets = append(buckets, entry)
	}

	return map[string]any{"buckets": buckets}, nil
}

func (a *Agent) listObjects(ctx context.Context, req core.Request) (any, error) {
	bucket, err := a.bucket(req)
	if err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix := req.StringParam("prefix", ""); prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if n := req.IntParam("max_keys", 0); n > 0 {
		input.MaxKeys = aws.Int32(int32(n))
	}

	out, err := a.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, err
	}

	objects := make([]map[string]any, 0, len(out.Contents))
	for _, obj := range out.Contents {
		entry := map[string]any{
			"key":  aws.ToString(obj.Key),
			"size": aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			entry["last_modified"] = obj.LastModified.Format(time.RFC3339)
		}
		objects = append(objects, entry)
	}

	return map[string]any{"bucket": bucket, "objects": objects, "truncated": aws.ToBool(out.IsTruncated)}, nil
}

func (a *Agent) getObject(ctx context.Context, req core.Request) (any, error) {
	bucket, err := a.bucket(req)
	if err != nil {
		return nil, err
	}
	key := req.StringParam("key", "")

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxInlineObject))
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return map[string]any{
		"bucket":       bucket,
		"key":          key,
		"content":      string(body),
		"content_type": aws.ToString(out.ContentType),
		"size":         aws.ToInt64(out.ContentLength),
	}, nil
}

func (a *Agent) putObject(ctx context.Context, req core.Request) (any, error) {
	bucket, err := a.bucket(req)
	if err != nil {
		return nil, err
	}
	key := req.StringParam("key", "")
	content := req.StringParam("content", "")

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader([]byte(content)),
	}
	if contentType := req.StringParam("content_type", ""); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return nil, err
	}

	return map[string]any{"bucket": bucket, "key": key, "size": len(content)}, nil
}

func (a *Agent) deleteObject(ctx context.Context, req core.Request) (any, error) {
	bucket, err := a.bucket(req)
	if err != nil {
		return nil, err
	}
	key := req.StringParam("key", "")

	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, err
	}

	return map[string]any{"bucket": bucket, "key": key, "deleted": true}, nil
}

func (a *Agent) createBucket(ctx context.Context, req core.Request) (any, error) {
	bucket := req.StringParam("bucket", "")

	if _, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return nil, err
	}

	return map[string]any{"bucket": bucket, "created": true}, nil
}
