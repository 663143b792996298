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
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/defsub/clipcast/lib/str"
	"github.com/defsub/clipcast/log"
)

// ClippingConfig is the per-linkage clip policy handed to the selector.
type ClippingConfig struct {
	ClipsPerVideo   int
	MinClipDuration int // seconds
	MaxClipDuration int // seconds
}

func (l Linkage) ClippingConfig() ClippingConfig {
	return ClippingConfig{
		ClipsPerVideo:   l.ClipsPerVideo,
		MinClipDuration: l.MinClipDuration,
		MaxClipDuration: l.MaxClipDuration,
	}
}

// ClipCandidate is the selector's parsed output for one proposed clip.
// Candidates live only between parsing and rendering.
type ClipCandidate struct {
	StartTime    float64  `json:"start_time"`
	EndTime      float64  `json:"end_time"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	Confidence   float64  `json:"confidence"`
	ViralFactors []string `json:"viral_factors"`
	Criteria     string   `json:"criteria"`
}

func (cand ClipCandidate) Duration() float64 {
	return cand.EndTime - cand.StartTime
}

func selectionPrompt(analysis string, cfg ClippingConfig) string {
	return fmt.Sprintf(`Analyze this video and identify exactly %d viral clip opportunities for YouTube Shorts.

VIDEO ANALYSIS:
%s

REQUIREMENTS:
- Each clip must be between %d and %d seconds
- Focus on: dramatic hooks, surprising moments, emotional peaks, action sequences, plot twists
- Clips should work as standalone content

For EACH clip, provide in this exact JSON format:
[
  {
    "start_time": <seconds as float>,
    "end_time": <seconds as float>,
    "title": "<engaging YouTube Short title, max 60 chars>",
    "description": "<compelling description for YouTube>",
    "tags": ["tag1", "tag2", "tag3"],
    "confidence": <0.0 to 1.0>,
    "viral_factors": ["hook detected", "dramatic reveal", etc.],
    "criteria": "<why this moment is viral>"
  }
]

Provide ONLY the JSON array, no other text.`,
		cfg.ClipsPerVideo, analysis, cfg.MinClipDuration, cfg.MaxClipDuration)
}

func reviewPrompt(criteria string, cfg ClippingConfig) string {
	return fmt.Sprintf(`Review this video clip for YouTube Shorts suitability.

ORIGINAL SELECTION CRITERIA:
%s

VERIFY:
1. Duration is appropriate (%d-%d seconds)
2. Contains the intended viral moment
3. Video quality is good (no artifacts, clear)
4. Suitable for YouTube Shorts format

Respond with:
- PASS if the clip meets all criteria
- FAIL if the clip has issues

Then provide brief feedback.`,
		criteria, cfg.MinClipDuration, cfg.MaxClipDuration)
}

// generateText submits the prompt to the first available provider in
// preference order. The ai_provider setting pins a specific one.
func (c *Clipper) generateText(ctx context.Context, prompt string) (string, error) {
	generators := c.generators
	if pinned := c.Setting(SettingAIProvider); pinned != "" {
		for _, g := range c.generators {
			if g.Name() == pinned {
				generators = []TextGenerator{g}
				break
			}
		}
	}
	if len(generators) == 0 {
		return "", errors.New("no AI provider available")
	}
	var lastErr error
	for _, g := range generators {
		response, err := g.GenerateText(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = fmt.Errorf("%s: %w", g.Name(), err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// parseCandidates decodes the model response. Strict parse first; on
// failure fall back to the substring from the first [ to the last ] to
// strip conversational and code-fence scaffolding.
func parseCandidates(response string) ([]ClipCandidate, error) {
	var candidates []ClipCandidate
	payload := strings.TrimSpace(response)
	err := json.Unmarshal([]byte(payload), &candidates)
	if err != nil {
		start := strings.Index(payload, "[")
		end := strings.LastIndex(payload, "]")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("no JSON array in response: %w", err)
		}
		err = json.Unmarshal([]byte(payload[start:end+1]), &candidates)
		if err != nil {
			return nil, fmt.Errorf("malformed candidate array: %w", err)
		}
	}
	for i := range candidates {
		if candidates[i].Confidence == 0 {
			candidates[i].Confidence = 0.5
		}
	}
	return candidates, nil
}

// filterCandidates enforces the policy window. A candidate running past
// the maximum is clamped to start+max rather than dropped so the model
// overshooting does not cost a clip; one under the minimum is dropped.
func filterCandidates(candidates []ClipCandidate, cfg ClippingConfig) []ClipCandidate {
	var accepted []ClipCandidate
	for _, cand := range candidates {
		if cand.EndTime <= cand.StartTime {
			continue
		}
		if cand.Duration() > float64(cfg.MaxClipDuration) {
			cand.EndTime = cand.StartTime + float64(cfg.MaxClipDuration)
		}
		if cand.Duration() < float64(cfg.MinClipDuration) {
			continue
		}
		accepted = append(accepted, cand)
	}
	return accepted
}

// identifyCandidates runs the selection prompt and returns the policy
// filtered candidates.
func (c *Clipper) identifyCandidates(ctx context.Context, analysis string,
	cfg ClippingConfig) ([]ClipCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Clipper.SelectTimeout)
	defer cancel()
	response, err := c.generateText(ctx, selectionPrompt(analysis, cfg))
	if err != nil {
		return nil, err
	}
	candidates, err := parseCandidates(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidates, err)
	}
	candidates = filterCandidates(candidates, cfg)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

// reviewClip asks the model for a PASS/FAIL verdict against the
// candidate's own selection criteria.
func (c *Clipper) reviewClip(ctx context.Context, criteria string,
	cfg ClippingConfig) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Clipper.SelectTimeout)
	defer cancel()
	response, err := c.generateText(ctx, reviewPrompt(criteria, cfg))
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(response), "PASS"), nil
}

func (c *Clipper) clipPath(jobID uint, number int) string {
	return filepath.Join(c.config.Clipper.OutputDir,
		fmt.Sprintf("clip_%d_%d.mp4", jobID, number))
}

func jobNamespace(jobID uint) string {
	return fmt.Sprintf("clipping_job_%d", jobID)
}

// extractClips runs the full selection step for one job: identify
// candidates from the indexed analysis, render each with the trim
// primitive, re-index the render, and keep the ones that pass review.
// Individual render failures are logged and skipped; a render of zero
// survivors fails the step.
func (c *Clipper) extractClips(ctx context.Context, job ClippingJob,
	cfg ClippingConfig) ([]ExtractedClip, error) {
	analysis, err := c.RetrieveAnalysis(ctx, job.LocalVideoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexerFailed, err)
	}

	candidates, err := c.identifyCandidates(ctx, analysis, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("job %d found %d candidates\n", job.ID, len(candidates))

	var clips []ExtractedClip
	var rendered, reviewErrs int
	for i, cand := range candidates {
		if ctx.Err() != nil {
			return clips, ctx.Err()
		}
		number := i + 1
		clipPath := c.clipPath(job.ID, number)
		err = c.trimmer.Trim(ctx, job.LocalVideoPath, clipPath,
			cand.StartTime, cand.EndTime)
		if err != nil {
			log.Printf("job %d clip %d: %s: %s\n", job.ID, number, ErrTrimFailed, err)
			continue
		}
		rendered++

		// re-index so the reviewer sees the rendered clip
		err = c.IndexVideo(ctx, clipPath, job.SourceVideoID, jobNamespace(job.ID))
		if err != nil {
			log.Printf("job %d clip %d index: %s\n", job.ID, number, err)
		}

		passed, err := c.reviewClip(ctx, cand.Criteria, cfg)
		if err != nil {
			// advisory; count the miss to catch a dead provider
			log.Printf("job %d clip %d review: %s\n", job.ID, number, err)
			reviewErrs++
			passed = true
		}
		if passed == false {
			log.Printf("job %d clip %d failed review\n", job.ID, number)
			continue
		}

		clips = append(clips, ExtractedClip{
			JobID:         job.ID,
			ClipNumber:    number,
			LocalClipPath: clipPath,
			StartTime:     cand.StartTime,
			EndTime:       cand.EndTime,
			Duration:      cand.Duration(),
			Title:         cand.Title,
			Description:   cand.Description,
			Tags:          str.Join(cand.Tags),
			Confidence:    cand.Confidence,
			ViralFactors:  str.Join(cand.ViralFactors),
			Criteria:      cand.Criteria,
		})
	}

	if rendered > 0 && reviewErrs == rendered {
		return nil, errors.New("review provider unreachable")
	}
	if len(clips) == 0 {
		return nil, ErrAllClipsRejected
	}
	return clips, nil
}
