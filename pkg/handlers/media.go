package handlers

import (
	"context"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/imaging"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

type CompressImage struct {
	codec imaging.Codec
	cfg   config.ImageTask
}

func NewCompressImage(codec imaging.Codec, cfg config.ImageTask) *CompressImage {
	return &CompressImage{codec: codec, cfg: cfg}
}

func (c *CompressImage) ID() task.HandlerID { return task.CompressImage }

func (c *CompressImage) Description() string {
	return "Re-encode " + c.cfg.Input + " at reduced quality into " + c.cfg.Output
}

func (c *CompressImage) Execute(_ context.Context, box *sandbox.IO) (task.Result, error) {
	src, err := box.ReadBytes(c.cfg.Input)
	if err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindNotFound, "Image not found")
	}
	out, err := c.codec.Compress(src, c.cfg.Quality)
	if err != nil {
		return task.Result{}, task.Codec("Failed to compress image", err)
	}
	if err := box.WriteBytes(c.cfg.Output, out); err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to save image")
	}
	return task.Succeeded("Image compressed"), nil
}

// TranscribeAudio writes a placeholder transcript; no speech recognition runs.
type TranscribeAudio struct {
	cfg config.TranscribeTask
}

func NewTranscribeAudio(cfg config.TranscribeTask) *TranscribeAudio {
	return &TranscribeAudio{cfg: cfg}
}

func (t *TranscribeAudio) ID() task.HandlerID { return task.TranscribeAudio }

func (t *TranscribeAudio) Description() string {
	return "Write a placeholder transcript to " + t.cfg.Output
}

func (t *TranscribeAudio) Execute(_ context.Context, box *sandbox.IO) (task.Result, error) {
	if err := box.Write(t.cfg.Output, t.cfg.Transcript); err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to save transcript")
	}
	return task.Succeeded("Audio transcribed"), nil
}
