package export

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "budget_data_alice_20240309.json", Filename("alice", now))
	assert.Equal(t, "exports/alice/budget_data_alice_20240309.json", Key("alice", Filename("alice", now)))
}

func TestRenderIsCanonicalAndReadOnly(t *testing.T) {
	doc := core.NewDocument()
	require.NoError(t, doc.SetIncome("2024-02", core.MustParseMoney("1000")))
	before := doc.MonthKeys()

	snap, err := Render("alice", doc, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "budget_data_alice_20240201.json", snap.Filename)

	want, err := core.EncodeDocument(doc.Clone())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(snap.Body))
	assert.Equal(t, before, doc.MonthKeys())

	back, err := core.Migrate(snap.Body)
	require.NoError(t, err)
	rec, ok := back.Month("2024-02")
	require.True(t, ok)
	assert.True(t, rec.Income.Equal(core.MustParseMoney("1000")))
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver(t *testing.T) {
	fake := &fakeS3{}
	a := NewS3ArchiverWithClient(fake, "budgets")
	snap := Snapshot{Filename: "budget_data_bob_20240101.json", Body: []byte(`{"version":2}`)}

	require.NoError(t, a.Archive(context.Background(), "bob", snap))
	assert.Equal(t, "budgets", *fake.in.Bucket)
	assert.Equal(t, "exports/bob/budget_data_bob_20240101.json", *fake.in.Key)
	assert.Equal(t, "application/json", *fake.in.ContentType)
	assert.Equal(t, snap.Body, fake.body)

	fake.err = errors.New("access denied")
	assert.ErrorContains(t, a.Archive(context.Background(), "bob", snap), "access denied")
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
