package recognize

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanbill/scanbill/internal/engine"
	"github.com/scanbill/scanbill/internal/preprocess"
)

type fakeOutcome struct {
	raw engine.RawResult
	err error
}

type fakeEngine struct {
	outcomes []fakeOutcome
	calls    []string
	next     int
}

func (f *fakeEngine) Recognize(_ context.Context, _ image.Image, rc engine.RecognitionConfig) (engine.RawResult, error) {
	f.calls = append(f.calls, rc.Name)
	if f.next >= len(f.outcomes) {
		return engine.RawResult{}, errors.New("unexpected recognition call")
	}
	out := f.outcomes[f.next]
	f.next++
	return out.raw, out.err
}

func testVariants(kinds ...preprocess.VariantKind) []preprocess.Variant {
	variants := make([]preprocess.Variant, 0, len(kinds))
	for _, k := range kinds {
		variants = append(variants, preprocess.Variant{
			Image: image.NewGray(image.Rect(0, 0, 8, 8)),
			Kind:  k,
		})
	}
	return variants
}

func twoConfigs() []engine.RecognitionConfig {
	return []engine.RecognitionConfig{{Name: "a"}, {Name: "b"}}
}

func TestNewOrchestratorRequiresEngine(t *testing.T) {
	_, err := NewOrchestrator(nil, nil)
	require.Error(t, err)
}

func TestNewOrchestratorDefaultsToCatalog(t *testing.T) {
	o, err := NewOrchestrator(&fakeEngine{}, nil)
	require.NoError(t, err)
	assert.Len(t, o.Configs(), len(engine.Catalog()))
}

func TestOrchestratorKeepsBestScore(t *testing.T) {
	fake := &fakeEngine{outcomes: []fakeOutcome{
		{raw: engine.RawResult{Text: "noise", Confidence: 10}},
		{raw: engine.RawResult{Text: "TOTAL: $42.50", Confidence: 80}},
	}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	best, err := o.Run(context.Background(), testVariants(preprocess.VariantEnhanced))
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Equal(t, "TOTAL: $42.50", best.Text)
	assert.Equal(t, "enhanced+b", best.Method)
	assert.InDelta(t, 80.0, best.EngineConfidence, 1e-9)
	assert.InDelta(t, 98.0, best.QualityScore, 1e-9)
}

func TestOrchestratorFirstSeenWinsTies(t *testing.T) {
	same := engine.RawResult{Text: "same text either way", Confidence: 40}
	fake := &fakeEngine{outcomes: []fakeOutcome{{raw: same}, {raw: same}}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	best, err := o.Run(context.Background(), testVariants(preprocess.VariantEnhanced))
	require.NoError(t, err)
	assert.Equal(t, "enhanced+a", best.Method)
}

func TestOrchestratorSkipsFailedAttempts(t *testing.T) {
	fake := &fakeEngine{outcomes: []fakeOutcome{
		{err: errors.New("engine hiccup")},
		{raw: engine.RawResult{Text: "TOTAL 5.00", Confidence: 50}},
	}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	best, err := o.Run(context.Background(), testVariants(preprocess.VariantEnhanced))
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 5.00", best.Text)
	assert.Len(t, fake.calls, 2)
}

func TestOrchestratorAllAttemptsFail(t *testing.T) {
	fake := &fakeEngine{outcomes: []fakeOutcome{
		{err: errors.New("bad pass")},
		{err: errors.New("worse pass")},
	}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	best, err := o.Run(context.Background(), testVariants(preprocess.VariantEnhanced))
	assert.Nil(t, best)
	assert.ErrorIs(t, err, ErrNoUsableResult)
}

func TestOrchestratorEmptyTextIsUnusable(t *testing.T) {
	fake := &fakeEngine{outcomes: []fakeOutcome{
		{raw: engine.RawResult{Text: "", Confidence: 90}},
		{raw: engine.RawResult{Text: "", Confidence: 95}},
	}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	best, err := o.Run(context.Background(), testVariants(preprocess.VariantEnhanced))
	assert.Nil(t, best)
	assert.ErrorIs(t, err, ErrNoUsableResult)
}

func TestOrchestratorVariantMajorOrder(t *testing.T) {
	ok := func(text string) fakeOutcome {
		return fakeOutcome{raw: engine.RawResult{Text: text, Confidence: 50}}
	}
	fake := &fakeEngine{outcomes: []fakeOutcome{ok("one"), ok("two"), ok("three"), ok("four")}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	_, err = o.Run(context.Background(), testVariants(preprocess.VariantEnhanced, preprocess.VariantSharpened))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "b"}, fake.calls)
}

func TestOrchestratorContextCanceled(t *testing.T) {
	fake := &fakeEngine{outcomes: []fakeOutcome{
		{raw: engine.RawResult{Text: "never reached", Confidence: 50}},
	}}
	o, err := NewOrchestrator(fake, twoConfigs())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := o.Run(ctx, testVariants(preprocess.VariantEnhanced))
	assert.Nil(t, best)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.calls)
}

func TestOrchestratorNoVariants(t *testing.T) {
	o, err := NewOrchestrator(&fakeEngine{}, twoConfigs())
	require.NoError(t, err)

	_, err = o.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no variants")
}
