package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func batch() Batch {
	return Batch{
		Table:  "schedule_instances",
		Reason: "expired",
		At:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Header: []string{"instance_id", "group"},
		Rows:   [][]string{{"i1", "7A"}, {"i2", "7B, evening"}},
	}
}

func TestBatchEncode(t *testing.T) {
	body, err := batch().Encode()
	require.NoError(t, err)
	assert.Equal(t, "instance_id,group\ni1,7A\ni2,\"7B, evening\"\n", string(body))
}

func TestS3ArchivePutsCSV(t *testing.T) {
	putter := &fakePutter{}
	store := &S3{client: putter, bucket: "archive"}

	require.NoError(t, store.Archive(context.Background(), batch()))

	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "archive", aws.ToString(putter.inputs[0].Bucket))
	assert.Equal(t, "schedule_instances/expired/20260302T100000.000000000Z.csv", aws.ToString(putter.inputs[0].Key))
	assert.Contains(t, putter.bodies[0], "i1,7A")
}

func TestS3ArchiveSkipsEmptyBatch(t *testing.T) {
	putter := &fakePutter{}
	store := &S3{client: putter, bucket: "archive"}

	b := batch()
	b.Rows = nil
	require.NoError(t, store.Archive(context.Background(), b))
	assert.Empty(t, putter.inputs)
}

func TestS3ArchiveReturnsError(t *testing.T) {
	store := &S3{client: &fakePutter{err: errors.New("denied")}, bucket: "archive"}
	assert.ErrorContains(t, store.Archive(context.Background(), batch()), "denied")
}
