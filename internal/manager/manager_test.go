package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"g2pd/internal/g2p"
	"g2pd/internal/registry"
	"g2pd/pkg/types"
)

func TestListModels(t *testing.T) {
	m := newTestManager(t, &fakePredictor{}, nil)
	got, err := m.ListModels(testCtx(t))
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(got) != 3 || got[0].Name != "alt" || got[1].Name != "nobackend" || got[2].Name != "upper" {
		t.Fatalf("unexpected models: %+v", got)
	}
	if got[2].Family != "FakeG2PModel" || got[2].Backend != "fake" {
		t.Fatalf("descriptor not completed: %+v", got[2])
	}
}

func TestListModelsUnknownFamily(t *testing.T) {
	m := newTestManager(t, &fakePredictor{}, func(c *ManagerConfig) { c.Family = "Nope" })
	if _, err := m.ListModels(testCtx(t)); !registry.IsFamilyNotFound(err) {
		t.Fatalf("expected family not found, got %v", err)
	}
}

func TestConvertWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeManifest(t, dir, `{"id":1,"text_graphemes":"hi"}`, `{"id":2,"text_graphemes":"yo"}`)
	out := filepath.Join(dir, "out.json")
	pub := NewMemoryPublisher()
	m := newTestManager(t, &fakePredictor{}, func(c *ManagerConfig) { c.Events = pub })

	resp, err := m.Convert(testCtx(t), types.ConvertRequest{Manifest: in, Output: out})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if resp.Model != "upper" || resp.Records != 2 || resp.Output != out || resp.Predictions != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "{\"id\":1,\"text_graphemes\":\"hi\",\"pred_text\":\"HI\"}\n{\"id\":2,\"text_graphemes\":\"yo\",\"pred_text\":\"YO\"}\n"
	if string(b) != want {
		t.Fatalf("output mismatch:\n%s\nwant:\n%s", b, want)
	}

	st := m.Status()
	if st.ConversionsTotal != 1 || st.RecordsTotal != 2 || st.FailuresTotal != 0 || st.ActiveOutputs != 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if len(st.Instances) != 1 || st.Instances[0].Model != "upper" || st.Instances[0].Conversions != 1 || st.Instances[0].LastUsed == 0 {
		t.Fatalf("unexpected instances: %+v", st.Instances)
	}

	names := pub.Names()
	want2 := []string{"instance_start", "instance_ready", g2p.EventConvertStart, g2p.EventConvertDone}
	if len(names) != len(want2) {
		t.Fatalf("events = %v, want %v", names, want2)
	}
	for i := range want2 {
		if names[i] != want2[i] {
			t.Fatalf("events = %v, want %v", names, want2)
		}
	}
	done := pub.Events()[3]
	if done.ModelID != "upper" || done.Fields["run_id"] == "" {
		t.Fatalf("driver event not tagged: %+v", done)
	}
	if got := len(pub.ForModel("upper")); got != 4 {
		t.Fatalf("ForModel(upper) = %d events, want 4", got)
	}
	if got := pub.ForModel("alt"); len(got) != 0 {
		t.Fatalf("unexpected events for alt: %+v", got)
	}
}

func TestConvertDefaultsAndReturnPredictions(t *testing.T) {
	dir := t.TempDir()
	in := writeManifest(t, dir, `{"text":"a"}`, `{"text":"b"}`, `{"text":"c"}`)
	out := filepath.Join(dir, "out.json")
	m := newTestManager(t, &fakePredictor{}, func(c *ManagerConfig) {
		c.Defaults = ConvertDefaults{GraphemeField: "text", PredField: "phonemes", BatchSize: 2, NumWorkers: 2}
	})
	resp, err := m.Convert(testCtx(t), types.ConvertRequest{Model: "alt", Manifest: in, Output: out, ReturnPredictions: true})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(resp.Predictions) != 3 || resp.Predictions[2] != "C" {
		t.Fatalf("unexpected predictions: %+v", resp)
	}
	b, _ := os.ReadFile(out)
	if string(b) != "{\"text\":\"a\",\"phonemes\":\"A\"}\n{\"text\":\"b\",\"phonemes\":\"B\"}\n{\"text\":\"c\",\"phonemes\":\"C\"}\n" {
		t.Fatalf("unexpected output: %s", b)
	}
}

func TestConvertWithoutOutputReturnsPredictions(t *testing.T) {
	in := writeManifest(t, t.TempDir(), `{"text_graphemes":"x"}`)
	m := newTestManager(t, &fakePredictor{}, nil)
	resp, err := m.Convert(testCtx(t), types.ConvertRequest{Manifest: in})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if resp.Output != "" || len(resp.Predictions) != 1 || resp.Predictions[0] != "X" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeManifest(t, dir, `{"text_graphemes":"x"}`)
	m := newTestManager(t, &fakePredictor{}, nil)
	ctx := testCtx(t)

	if _, err := m.Convert(ctx, types.ConvertRequest{Model: "ghost", Manifest: in}); !IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
	if _, err := m.Convert(ctx, types.ConvertRequest{Model: "nobackend", Manifest: in}); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if _, err := m.Convert(ctx, types.ConvertRequest{Manifest: filepath.Join(dir, "missing.json")}); !g2p.IsFileNotFound(err) {
		t.Fatalf("expected file not found, got %v", err)
	}
	if _, err := m.Convert(ctx, types.ConvertRequest{Manifest: in, BatchSize: -1}); !g2p.IsInvalidOption(err) {
		t.Fatalf("expected invalid option, got %v", err)
	}
	st := m.Status()
	if st.FailuresTotal != 2 || st.LastError == "" {
		t.Fatalf("failures not recorded: %+v", st)
	}

	noDefault := newTestManager(t, &fakePredictor{}, func(c *ManagerConfig) { c.DefaultVariant = "" })
	if _, err := noDefault.Convert(ctx, types.ConvertRequest{Manifest: in}); !IsModelNotFound(err) {
		t.Fatalf("expected model not found without default, got %v", err)
	}
}

func TestPredict(t *testing.T) {
	m := newTestManager(t, &fakePredictor{}, nil)
	got, err := m.Predict(testCtx(t), "", []string{"ab", "c"})
	if err != nil || len(got) != 2 || got[0] != "AB" {
		t.Fatalf("Predict: %v %v", got, err)
	}
	empty, err := m.Predict(testCtx(t), "upper", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty Predict: %v %v", empty, err)
	}
	short := newTestManager(t, &fakePredictor{short: true}, nil)
	if _, err := short.Predict(testCtx(t), "upper", []string{"a", "b"}); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}

func TestInstanceCachedAndRecreatedOnCatalogChange(t *testing.T) {
	created := 0
	pred := &fakePredictor{}
	cat := testCatalog()
	m := newTestManager(t, pred, func(c *ManagerConfig) {
		c.Store = registry.NewStaticStore(cat)
		c.Backends = fakeBackends(pred, &created)
	})
	for i := 0; i < 3; i++ {
		if _, err := m.Predict(testCtx(t), "upper", []string{"a"}); err != nil {
			t.Fatalf("Predict: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected one predictor, created %d", created)
	}
	cat.Families[1].Variants[0].Location = "mem://moved"
	if _, err := m.Predict(testCtx(t), "upper", []string{"a"}); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if created != 2 || !pred.closed {
		t.Fatalf("expected recreation and close of stale predictor, created=%d closed=%v", created, pred.closed)
	}
}

func TestCloseReleasesPredictors(t *testing.T) {
	pred := &fakePredictor{}
	m := newTestManager(t, pred, nil)
	if !m.Ready() {
		t.Fatalf("expected ready")
	}
	if _, err := m.Predict(testCtx(t), "upper", []string{"a"}); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.Ready() || !pred.closed {
		t.Fatalf("expected not ready and predictor closed")
	}
	if _, err := m.Convert(context.Background(), types.ConvertRequest{Manifest: "x"}); !IsTooBusy(err) {
		t.Fatalf("expected too busy after close, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNotReadyWithoutStore(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	if m.Ready() {
		t.Fatalf("manager without catalog must not be ready")
	}
	got, err := m.ListModels(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("ListModels: %v %v", got, err)
	}
}
