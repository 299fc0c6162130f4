package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/kafkax"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader replays msgs and then blocks until the context ends.
type fakeReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) == 0 {
		f.mu.Unlock()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	f.mu.Unlock()
	return msg, nil
}

func (f *fakeReader) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeInbox struct {
	seen map[string]bool
}

func (f *fakeInbox) Record(_ context.Context, id, _ string) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

type fakeReports struct {
	single []model.ReportType
	all    int
}

func (f *fakeReports) Generate(_ context.Context, typ model.ReportType) (model.Report, error) {
	f.single = append(f.single, typ)
	return model.Report{Type: typ}, nil
}

func (f *fakeReports) GenerateAll(context.Context) ([]model.Report, error) {
	f.all++
	return nil, nil
}

func request(id, body string) kafka.Message {
	return kafka.Message{
		Topic:   "staffplan.report.requested.v1",
		Value:   []byte(body),
		Headers: []kafka.Header{{Key: kafkax.HeaderEventID, Value: []byte(id)}},
	}
}

func TestConsumerDeduplicatesAndDispatches(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		request("e-1", `{"report_type":"workload"}`),
		request("e-1", `{"report_type":"workload"}`),
		request("e-2", `{}`),
		request("e-3", `{"report_type":"weekly"}`),
	}}
	reports := &fakeReports{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c := New(reader, &fakeInbox{seen: map[string]bool{}}, logger, ReportRequestHandler(reports))
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return reader.remaining() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []model.ReportType{model.ReportWorkload}, reports.single)
	assert.Equal(t, 1, reports.all)
	assert.True(t, reader.closed)
}

func TestReportRequestHandlerRejectsBadPayload(t *testing.T) {
	h := ReportRequestHandler(&fakeReports{})
	err := h(context.Background(), kafka.Message{Value: []byte("{")})
	require.Error(t, err)

	err = h(context.Background(), kafka.Message{Value: []byte(`{"report_type":"weekly"}`)})
	assert.True(t, errors.Is(err, model.ErrValidation))
}
