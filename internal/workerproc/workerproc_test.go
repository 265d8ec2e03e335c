package workerproc

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bads1de/CareerRise/internal/queue"
)

type fakeStore struct {
	deleted []string
	err     error
}

func (f *fakeStore) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStore) Delete(_ context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func body(t *testing.T, msg queue.Message) string {
	t.Helper()
	raw, err := queue.EncodeMessage(msg)
	require.NoError(t, err)
	return string(raw)
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "blank", body: "  ", reason: "empty body"},
		{name: "garbage", body: "{oops", reason: "malformed json"},
		{name: "other kind", body: body(t, queue.Message{Kind: "resume.render", URL: "x"}), reason: "unsupported kind resume.render"},
		{name: "no url", body: body(t, queue.Message{Kind: queue.KindPhotoDelete}), reason: "missing photo url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job, err := Processor{}.Decode(tc.body)

			var rej *RejectError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tc.reason, rej.Reason)
			assert.True(t, Unrecoverable(err))
			assert.Equal(t, len(tc.body), job.BodyLen)
			assert.NotEmpty(t, job.BodySHA256)
		})
	}
}

func TestDecodeAcceptsPhotoDelete(t *testing.T) {
	job, err := Processor{}.Decode(body(t, queue.Message{Kind: queue.KindPhotoDelete, URL: "https://cdn/a.png", RequestID: "r1"}))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", job.URL)
	assert.Equal(t, "r1", job.Fields()["request_id"])
}

func TestProcessDeletesPhoto(t *testing.T) {
	store := &fakeStore{}

	_, err := Processor{Store: store}.Process(context.Background(), body(t, queue.Message{Kind: queue.KindPhotoDelete, URL: "https://cdn/a.png"}))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.png"}, store.deleted)
}

func TestProcessStoreFailureIsRetryable(t *testing.T) {
	p := Processor{Store: &fakeStore{err: errors.New("s3 down")}}

	_, err := p.Process(context.Background(), body(t, queue.Message{Kind: queue.KindPhotoDelete, URL: "https://cdn/a.png"}))

	require.ErrorContains(t, err, "s3 down")
	assert.False(t, Unrecoverable(err))
}

func TestRunRequiresStore(t *testing.T) {
	err := Processor{}.Run(context.Background(), Job{Message: queue.Message{Kind: queue.KindPhotoDelete, URL: "u"}})
	require.Error(t, err)
	assert.False(t, Unrecoverable(err))
}
