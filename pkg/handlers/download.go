package handlers

import (
	"context"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/fetch"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

// Download saves the body of a fixed URL into the sandbox. Non-2xx responses
// are saved as-is; only transport failures count as errors.
type Download struct {
	id      task.HandlerID
	desc    string
	url     string
	output  string
	done    string
	failure string
	getter  fetch.Getter
}

func NewFetchAPI(getter fetch.Getter, cfg config.DownloadTask) *Download {
	return &Download{
		id:      task.FetchAPI,
		desc:    "Fetch JSON from the configured API into " + cfg.Output,
		url:     cfg.URL,
		output:  cfg.Output,
		done:    "API data fetched and saved",
		failure: "Failed to fetch API data",
		getter:  getter,
	}
}

func NewScrapeSite(getter fetch.Getter, cfg config.DownloadTask) *Download {
	return &Download{
		id:      task.ScrapeSite,
		desc:    "Save the configured web page into " + cfg.Output,
		url:     cfg.URL,
		output:  cfg.Output,
		done:    "Website data scraped",
		failure: "Failed to scrape website",
		getter:  getter,
	}
}

func (d *Download) ID() task.HandlerID  { return d.id }
func (d *Download) Description() string { return d.desc }

func (d *Download) Execute(ctx context.Context, box *sandbox.IO) (task.Result, error) {
	resp, err := d.getter.Get(ctx, d.url)
	if err != nil {
		return task.Result{}, task.Upstream(d.failure, err)
	}
	if err := box.WriteBytes(d.output, resp.Body); err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to save response")
	}
	return task.Succeeded(d.done), nil
}
