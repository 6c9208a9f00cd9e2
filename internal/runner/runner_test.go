package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"refinery/internal/artifact"
	"refinery/internal/config"
	"refinery/internal/llm"
	"refinery/internal/refine"
	"refinery/internal/runctx"
	"refinery/internal/runstore"
	"refinery/internal/scorecard"
	"refinery/internal/tester"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		PrimaryModel:   "primary",
		FastModel:      "fast",
		DocumentRounds: 5,
		AnalysisRounds: 5,
		WorkDir:        t.TempDir(),
		OutDir:         t.TempDir(),
	}
}

func factoryFor(clients map[string]llm.Client) func(context.Context, string) (llm.Client, error) {
	return func(_ context.Context, model string) (llm.Client, error) {
		cli, ok := clients[model]
		if !ok {
			return nil, errors.New("no client for model " + model)
		}
		return cli, nil
	}
}

func reviewText(fixed, feedback string) string {
	return scorecard.StartMarker +
		"\n* Previous_Kill_List_Fixed: [" + fixed + "]\n" +
		scorecard.EndMarker + "\n" + feedback
}

func quietLog() *log.Logger { return log.New(io.Discard, "", 0) }

func TestRunDocumentPersistsTrail(t *testing.T) {
	primary := llm.NewFake(
		"- intro\n- findings",
		"draft one",
		"Drafter: add citations to the findings section",
		"draft two",
	)
	fast := llm.NewFake(
		reviewText("NO", "- findings lack citations"),
		reviewText("YES", ""),
	)

	store := artifact.NewMemoryStore()
	runs := runstore.New(filepath.Join(t.TempDir(), "runs.json"))
	r := New(testConfig(t), store, runs, quietLog())
	r.ClientFactory = factoryFor(map[string]llm.Client{"primary": primary, "fast": fast})

	events := make(chan RunEvent, 32)
	ctx := WithEmitter(context.Background(), &ChannelEmitter{Ch: events, RunID: "run-doc-1"})

	res, err := r.RunDocument(ctx, "run-doc-1", "write the study")
	tester.NoErr(t, err)
	tester.Eq(t, res.Status, refine.StatusSuccess)
	tester.Eq(t, res.Document, "draft two")
	tester.Eq(t, len(res.Rounds), 2)

	rec, err := runs.Get(ctx, "run-doc-1")
	tester.NoErr(t, err)
	tester.Eq(t, rec.Status, runstore.StatusSucceeded)
	tester.Eq(t, rec.Mode, runstore.ModeDocument)
	tester.Eq(t, rec.Task, "write the study")

	var stored refine.Result
	tester.NoErr(t, json.Unmarshal(rec.Result, &stored))
	tester.Eq(t, stored.Status, refine.StatusSuccess)

	final, err := store.Get(ctx, "run-doc-1", "final.md")
	tester.NoErr(t, err)
	tester.Eq(t, string(final), "draft two")

	report, err := store.Get(ctx, "run-doc-1", "report.json")
	tester.NoErr(t, err)
	tester.Contains(t, string(report), `"SUCCESS"`)

	// Prompt transcripts are grouped per round and role.
	draftLog, err := store.Get(ctx, "run-doc-1", "prompts/round_01_drafter.md")
	tester.NoErr(t, err)
	tester.Contains(t, string(draftLog), "- intro")
	tester.Contains(t, string(draftLog), "draft one")

	criticLog, err := store.Get(ctx, "run-doc-1", "prompts/round_02_critic.md")
	tester.NoErr(t, err)
	tester.Contains(t, string(criticLog), "findings lack citations")

	close(events)
	var rounds, completes int
	for ev := range events {
		tester.Eq(t, ev.RunID, "run-doc-1")
		switch ev.Type {
		case EventTypeRound:
			rounds++
		case EventTypeComplete:
			completes++
		}
	}
	tester.Eq(t, rounds, 2)
	tester.Eq(t, completes, 1)
}

func TestRunDocumentRecordsCollaboratorFailure(t *testing.T) {
	primary := llm.NewFake("- outline", "draft one")
	fast := llm.NewFake()
	fast.Err = errors.New("quota exhausted")

	runs := runstore.New(filepath.Join(t.TempDir(), "runs.json"))
	r := New(testConfig(t), artifact.NewMemoryStore(), runs, quietLog())
	r.ClientFactory = factoryFor(map[string]llm.Client{"primary": primary, "fast": fast})

	_, err := r.RunDocument(context.Background(), "run-doc-2", "task")
	tester.Err(t, err)
	tester.Contains(t, err.Error(), "round 1: critic")

	rec, getErr := runs.Get(context.Background(), "run-doc-2")
	tester.NoErr(t, getErr)
	tester.Eq(t, rec.Status, runstore.StatusFailed)
	tester.Contains(t, rec.Error, "quota exhausted")
}

func TestRunAnalysisFailsWithoutWorkdir(t *testing.T) {
	cfg := testConfig(t)
	cfg.WorkDir = filepath.Join(t.TempDir(), "missing")

	runs := runstore.New(filepath.Join(t.TempDir(), "runs.json"))
	r := New(cfg, artifact.NewMemoryStore(), runs, quietLog())
	r.ClientFactory = factoryFor(map[string]llm.Client{
		"primary": llm.NewFake("x"),
		"fast":    llm.NewFake("x"),
	})

	_, err := r.RunAnalysis(context.Background(), "run-an-1", "goals")
	tester.Err(t, err)
	tester.Contains(t, err.Error(), "workdir")

	rec, getErr := runs.Get(context.Background(), "run-an-1")
	tester.NoErr(t, getErr)
	tester.Eq(t, rec.Status, runstore.StatusFailed)
}

func TestPromptSaverGroupsByRoundAndRole(t *testing.T) {
	store := artifact.NewMemoryStore()
	saver := NewPromptSaver(store, "run-1")

	ctx := runctx.WithRound(context.Background(), 3)
	saver.Before(ctx, "critic", "audit this")
	saver.After(ctx, "critic", "looks wrong", nil)
	saver.Before(ctx, "critic", "audit again")
	saver.After(ctx, "critic", "", errors.New("provider down"))

	b, err := store.Get(ctx, "run-1", "prompts/round_03_critic.md")
	tester.NoErr(t, err)
	text := string(b)
	tester.Contains(t, text, "audit this")
	tester.Contains(t, text, "looks wrong")
	tester.Contains(t, text, "audit again")
	tester.Contains(t, text, "ERROR: provider down")
	tester.Eq(t, strings.Count(text, "## PROMPT"), 2)
	tester.Eq(t, strings.Count(text, "## RESPONSE"), 2)
}

func TestPromptSaverDefaultsRole(t *testing.T) {
	store := artifact.NewMemoryStore()
	saver := NewPromptSaver(store, "run-1")
	saver.Before(context.Background(), "", "hello")

	_, err := store.Get(context.Background(), "run-1", "prompts/round_00_unknown.md")
	tester.NoErr(t, err)
}

func TestChannelEmitterNeverBlocks(t *testing.T) {
	ch := make(chan RunEvent, 1)
	e := &ChannelEmitter{Ch: ch, RunID: "run-9"}

	e.EmitLog("first")
	e.EmitLog("dropped")

	ev := <-ch
	tester.Eq(t, ev.Type, EventTypeLog)
	tester.Eq(t, ev.Message, "first")
	tester.Eq(t, ev.RunID, "run-9")
	tester.Eq(t, len(ch), 0)
}

func TestEmitterFromDefaultsToNoop(t *testing.T) {
	e := EmitterFrom(context.Background())
	e.EmitLog("ignored")
	e.EmitRound(1, "ignored")
	e.EmitProgress(50, "ignored")
}

func TestStatusMapping(t *testing.T) {
	tester.Eq(t, documentStatus(refine.StatusSuccess), runstore.StatusSucceeded)
	tester.Eq(t, documentStatus(refine.StatusRejected), runstore.StatusRejected)
	tester.Eq(t, documentStatus(refine.StatusExhausted), runstore.StatusExhausted)
}
