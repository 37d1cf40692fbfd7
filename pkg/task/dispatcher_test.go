package task

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	id    HandlerID
	calls int
	run   func(ctx context.Context, box *sandbox.IO) (Result, error)
}

func (f *fakeHandler) ID() HandlerID       { return f.id }
func (f *fakeHandler) Description() string { return "fake " + string(f.id) }

func (f *fakeHandler) Execute(ctx context.Context, box *sandbox.IO) (Result, error) {
	f.calls++
	return f.run(ctx, box)
}

func newTestDispatcher(t *testing.T, handlers ...Handler) (*Dispatcher, *sandbox.IO) {
	t.Helper()
	guard, err := sandbox.NewGuard(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	box := sandbox.NewIO(guard)
	return NewDispatcher(box, NewMatcher(DefaultRules()), NewRegistry(handlers...)), box
}

func TestDispatcherRunsMatchedHandler(t *testing.T) {
	fetch := &fakeHandler{id: FetchAPI, run: func(ctx context.Context, box *sandbox.IO) (Result, error) {
		if err := box.Write("api_data.json", `{"id":1}`); err != nil {
			return Result{}, err
		}
		return Succeeded("API data fetched and saved"), nil
	}}
	d, box := newTestDispatcher(t, fetch)

	env := d.RunTask(context.Background(), "Please FETCH data from the API")

	assert.Equal(t, Envelope{Message: "API data fetched and saved"}, env)
	assert.Equal(t, 1, fetch.calls)
	content, err := box.Read("api_data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, content)
}

func TestDispatcherNotRecognized(t *testing.T) {
	d, box := newTestDispatcher(t)

	env := d.RunTask(context.Background(), "do the laundry")

	assert.Equal(t, Envelope{Error: "Task not recognized or not implemented"}, env)
	assert.True(t, box.Exists("."), "sandbox root is created on every run")
}

func TestDispatcherMatchedButUnregistered(t *testing.T) {
	d, _ := newTestDispatcher(t)

	env := d.RunTask(context.Background(), "transcribe the audio")

	assert.Equal(t, "Task not recognized or not implemented", env.Error)
}

func TestDispatcherMapsHandlerErrors(t *testing.T) {
	upstream := &fakeHandler{id: FetchAPI, run: func(context.Context, *sandbox.IO) (Result, error) {
		return Result{}, Upstream("Failed to fetch API data", errors.New("dial tcp 10.0.0.1:443: connection refused"))
	}}
	denied := &fakeHandler{id: ScrapeSite, run: func(_ context.Context, box *sandbox.IO) (Result, error) {
		return Result{}, box.Write("../escape.html", "x")
	}}
	d, _ := newTestDispatcher(t, upstream, denied)

	res := d.Run(context.Background(), "fetch the api")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Equal(t, Envelope{Error: "Failed to fetch API data"}, res.Envelope())
	assert.NotContains(t, res.Reason, "10.0.0.1")

	res = d.Run(context.Background(), "scrape the website")
	assert.Equal(t, KindAccessDenied, res.Kind)
	assert.Equal(t, "Access denied", res.Reason)
}

func TestDispatcherRecoversFromPanics(t *testing.T) {
	boom := &fakeHandler{id: SQLQuery, run: func(context.Context, *sandbox.IO) (Result, error) {
		panic("index out of range")
	}}
	d, _ := newTestDispatcher(t, boom)

	var env Envelope
	require.NotPanics(t, func() {
		env = d.RunTask(context.Background(), "sql query")
	})
	assert.Equal(t, Envelope{Error: "Task failed"}, env)
}

func TestDispatcherReturnsPayload(t *testing.T) {
	rows := []map[string]string{{"Category": "Important"}}
	filter := &fakeHandler{id: FilterCSV, run: func(context.Context, *sandbox.IO) (Result, error) {
		return SucceededWith("CSV filtered", rows), nil
	}}
	d, _ := newTestDispatcher(t, filter)

	env := d.RunTask(context.Background(), "filter csv")

	data, err := json.Marshal(env.Body())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Category":"Important"}]`, string(data))
}

func TestEnvelopeBodyShapes(t *testing.T) {
	data, err := json.Marshal(Succeeded("done").Envelope().Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"done"}`, string(data))

	data, err = json.Marshal(NotRecognized().Envelope().Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Task not recognized or not implemented"}`, string(data))
}

func TestPublicMessageHidesCauses(t *testing.T) {
	assert.Equal(t, "Task failed", PublicMessage(errors.New("open /srv/secret/path: permission denied")))
	assert.Equal(t, "File not found", PublicMessage(sandbox.ErrNotFound))
	assert.Equal(t, "Access denied", PublicMessage(sandbox.ErrAccessDenied))
	assert.Equal(t, "Image not found", PublicMessage(FromSandbox(sandbox.ErrNotFound, KindCodec, "Image not found")))
	assert.Equal(t, KindAccessDenied, KindOf(FromSandbox(sandbox.ErrAccessDenied, KindCodec, "x")))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandler{id: FetchAPI}
	require.NoError(t, r.Register(h))
	require.Error(t, r.Register(h))
	require.Error(t, r.Register(nil))
	assert.Len(t, r.List(), 1)
}
