// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

package clipper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var testPolicy = ClippingConfig{
	ClipsPerVideo:   2,
	MinClipDuration: 30,
	MaxClipDuration: 60,
}

func TestParseCandidatesStrict(t *testing.T) {
	candidates, err := parseCandidates(testCandidates)
	if err != nil {
		t.Fatalf("parse %s\n", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates got %d\n", len(candidates))
	}
	first := candidates[0]
	if first.StartTime != 10.0 || first.EndTime != 55.0 {
		t.Errorf("wrong times %f %f\n", first.StartTime, first.EndTime)
	}
	if first.Title != "First Moment" {
		t.Errorf("wrong title %s\n", first.Title)
	}
	if first.Confidence != 0.9 {
		t.Errorf("wrong confidence %f\n", first.Confidence)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "gaming" {
		t.Errorf("wrong tags %v\n", first.Tags)
	}
}

// Models often wrap the array in prose or a code fence; the parser
// recovers the bracketed substring.
func TestParseCandidatesFenced(t *testing.T) {
	response := "Here are the clips:\n```json\n" + testCandidates + "\n```\nEnjoy!"
	candidates, err := parseCandidates(response)
	if err != nil {
		t.Fatalf("parse %s\n", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected 2 candidates got %d\n", len(candidates))
	}
}

func TestParseCandidatesMalformed(t *testing.T) {
	for _, response := range []string{
		"",
		"no json here",
		"[{not json}]",
		"]backwards[",
	} {
		if _, err := parseCandidates(response); err == nil {
			t.Errorf("expected error for %q\n", response)
		}
	}
}

// A candidate with no confidence gets the midpoint default.
func TestParseCandidatesConfidenceDefault(t *testing.T) {
	response := `[{"start_time": 5.0, "end_time": 45.0, "title": "t"}]`
	candidates, err := parseCandidates(response)
	if err != nil {
		t.Fatalf("parse %s\n", err)
	}
	if candidates[0].Confidence != 0.5 {
		t.Errorf("expected default 0.5 got %f\n", candidates[0].Confidence)
	}
}

func TestFilterCandidates(t *testing.T) {
	candidates := []ClipCandidate{
		{StartTime: 10, EndTime: 55},  // in window, kept
		{StartTime: 0, EndTime: 90},   // over max, clamped to 60
		{StartTime: 10, EndTime: 20},  // under min, dropped
		{StartTime: 50, EndTime: 50},  // empty, dropped
		{StartTime: 60, EndTime: 40},  // inverted, dropped
	}
	accepted := filterCandidates(candidates, testPolicy)
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted got %d\n", len(accepted))
	}
	if accepted[0].Duration() != 45 {
		t.Errorf("first duration %f\n", accepted[0].Duration())
	}
	if accepted[1].StartTime != 0 || accepted[1].EndTime != 60 {
		t.Errorf("overlong candidate should clamp to start+max, got %f..%f\n",
			accepted[1].StartTime, accepted[1].EndTime)
	}
}

func TestSelectionPrompt(t *testing.T) {
	prompt := selectionPrompt("the analysis text", testPolicy)
	for _, want := range []string{
		"exactly 2 viral clip opportunities",
		"between 30 and 60 seconds",
		"the analysis text",
		"ONLY the JSON array",
	} {
		if strings.Contains(prompt, want) == false {
			t.Errorf("selection prompt missing %q\n", want)
		}
	}
}

func TestReviewPrompt(t *testing.T) {
	prompt := reviewPrompt("dramatic hook", testPolicy)
	if strings.HasPrefix(prompt, "Review this video clip") == false {
		t.Error("review prompt has wrong opening")
	}
	for _, want := range []string{
		"dramatic hook",
		"(30-60 seconds)",
		"PASS if the clip meets all criteria",
	} {
		if strings.Contains(prompt, want) == false {
			t.Errorf("review prompt missing %q\n", want)
		}
	}
}

// Provider preference: a dead first provider falls through to the next.
func TestGenerateTextFallback(t *testing.T) {
	c, _ := testClipper(t)
	dead := &stubGenerator{name: "dead", err: errors.New("overloaded")}
	alive := &stubGenerator{name: "alive", selectResponse: "ok"}
	c.generators = []TextGenerator{dead, alive}

	response, err := c.generateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate %s\n", err)
	}
	if response != "ok" {
		t.Errorf("wrong response %s\n", response)
	}
	if dead.calls != 1 || alive.calls != 1 {
		t.Errorf("wrong call counts %d %d\n", dead.calls, alive.calls)
	}
}

// The ai_provider setting pins a provider, skipping preference order.
func TestGenerateTextPinned(t *testing.T) {
	c, _ := testClipper(t)
	first := &stubGenerator{name: "first", selectResponse: "from first"}
	second := &stubGenerator{name: "second", selectResponse: "from second"}
	c.generators = []TextGenerator{first, second}
	c.UpdateSetting(SettingAIProvider, "second")

	response, err := c.generateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate %s\n", err)
	}
	if response != "from second" {
		t.Errorf("pin ignored, got %s\n", response)
	}
	if first.calls != 0 {
		t.Error("pinned provider should bypass the first")
	}
}

func TestGenerateTextAllFail(t *testing.T) {
	c, s := testClipper(t)
	s.generator.err = errors.New("unavailable")
	_, err := c.generateText(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "unavailable") == false {
		t.Errorf("error should name the cause: %s\n", err)
	}
}

func selectorJob(t *testing.T, c *Clipper) ClippingJob {
	channel := testChannel(t, c, "UC1", "")
	account := testAccount(t, c, "dest", time.Now().Add(time.Hour))
	linkage := testLinkage(t, c, channel.ID, account.ID)
	job := testJob(t, c, linkage.ID, "V1")
	job.LocalVideoPath = "/tmp/source.mp4"
	return job
}

func TestExtractClips(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "PASS - clean cut, strong hook"

	clips, err := c.extractClips(context.Background(), job, testPolicy)
	if err != nil {
		t.Fatalf("extract %s\n", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips got %d\n", len(clips))
	}
	if clips[0].ClipNumber != 1 || clips[1].ClipNumber != 2 {
		t.Error("clip numbers should follow candidate order")
	}
	if clips[0].Duration != 45 {
		t.Errorf("wrong duration %f\n", clips[0].Duration)
	}
	if clips[0].Tags != "gaming, fun" {
		t.Errorf("wrong tags %s\n", clips[0].Tags)
	}
	if s.trimmer.trims != 2 {
		t.Errorf("expected 2 renders got %d\n", s.trimmer.trims)
	}
}

func TestExtractClipsNoCandidates(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = "[]"

	_, err := c.extractClips(context.Background(), job, testPolicy)
	if errors.Is(err, ErrNoCandidates) == false {
		t.Fatalf("expected ErrNoCandidates got %s\n", err)
	}
	if s.trimmer.trims != 0 {
		t.Error("nothing should render without candidates")
	}
}

func TestExtractClipsAllRejected(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "FAIL - heavy artifacts"

	_, err := c.extractClips(context.Background(), job, testPolicy)
	if errors.Is(err, ErrAllClipsRejected) == false {
		t.Fatalf("expected ErrAllClipsRejected got %s\n", err)
	}
	if err.Error() != "All clip extractions failed or were rejected" {
		t.Errorf("wrong message %q\n", err.Error())
	}
}

// A failed render is skipped; the rest of the batch continues.
func TestExtractClipsTrimFailureSkipped(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "PASS"
	s.trimmer.failN = map[int]bool{1: true}

	clips, err := c.extractClips(context.Background(), job, testPolicy)
	if err != nil {
		t.Fatalf("extract %s\n", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip got %d\n", len(clips))
	}
	if clips[0].ClipNumber != 2 {
		t.Errorf("surviving clip should keep its number, got %d\n",
			clips[0].ClipNumber)
	}
}

// A review transport error is advisory for a single clip; the clip is
// kept.
func TestExtractClipsReviewErrorAdvisory(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "PASS"
	s.generator.reviewErr = errors.New("timeout")
	s.generator.reviewErrN = 1

	clips, err := c.extractClips(context.Background(), job, testPolicy)
	if err != nil {
		t.Fatalf("extract %s\n", err)
	}
	if len(clips) != 2 {
		t.Errorf("review error should not drop the clip, got %d\n", len(clips))
	}
}

// Every review failing means the provider is down, not that every clip
// is bad.
func TestExtractClipsReviewProviderDown(t *testing.T) {
	c, s := testClipper(t)
	job := selectorJob(t, c)
	s.generator.selectResponse = testCandidates
	s.generator.reviewErr = errors.New("timeout")

	_, err := c.extractClips(context.Background(), job, testPolicy)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "review provider unreachable") == false {
		t.Errorf("wrong error %s\n", err)
	}
}
