package bulk

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"bulkgen/internal/domain"
	"bulkgen/pkg/zip"
)

// Archive is a prepared download: entry data is fully decoded so nothing can
// fail once the response has started.
type Archive struct {
	Filename string
	Entries  []zip.Entry
	Images   int
	Skipped  int
}

// Archive collects the completed images of the given requests. One request
// yields flat `NNN_<title>.png` entries plus summary.txt; several requests
// each get a `<id>_<title>/` folder. Records whose image cannot be decoded are
// skipped and logged.
func (s *Service) Archive(ctx context.Context, ids []int64) (*Archive, error) {
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Field: "ids", Reason: "at least one id is required"}
	}
	multi := len(ids) > 1
	out := &Archive{}
	found := 0

	for _, id := range ids {
		bulk, err := s.bulks.GetByID(ctx, id)
		if err != nil {
			if multi && errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn().Int64("bulk_request_id", id).Msg("archive: bulk request missing, skipped")
				continue
			}
			return nil, err
		}
		found++
		jobs, err := s.jobs.ListByBulk(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		counts, err := s.jobs.CountByStatus(ctx, &id)
		if err != nil {
			return nil, fmt.Errorf("count jobs: %w", err)
		}

		prefix := ""
		if multi {
			prefix = FolderName(bulk.ID, bulk.Title) + "/"
		}
		for _, job := range jobs {
			if job.Status != domain.JobStatusCompleted || job.GeneratedImage == nil {
				continue
			}
			data, err := DecodePNG(*job.GeneratedImage)
			if err != nil {
				out.Skipped++
				s.logger.Warn().Err(err).
					Int64("bulk_request_id", bulk.ID).
					Int64("job_id", job.ID).
					Msg("archive: unreadable image, skipped")
				continue
			}
			out.Entries = append(out.Entries, zip.Entry{
				Name:     prefix + ImageName(job.Sequence, bulk.Title),
				Data:     data,
				Modified: job.UpdatedAt,
			})
			out.Images++
		}
		out.Entries = append(out.Entries, zip.Entry{
			Name:     prefix + "summary.txt",
			Data:     []byte(Summary(*bulk, jobs, counts)),
			Modified: s.now(),
		})
		if !multi {
			out.Filename = SanitizeTitle(bulk.Title) + ".zip"
		}
	}
	if found == 0 {
		return nil, domain.ErrNotFound
	}
	if multi {
		out.Filename = fmt.Sprintf("bulk_requests_%s.zip", s.now().UTC().Format("20060102_150405"))
	}
	return out, nil
}

// DecodePNG turns a stored data URI (or bare base64) into PNG bytes,
// re-encoding when the payload is some other image format.
func DecodePNG(stored string) ([]byte, error) {
	payload := strings.TrimSpace(stored)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, errors.New("malformed data uri")
		}
		payload = payload[comma+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Summary renders the plain-text report shipped with every archive.
func Summary(bulk domain.BulkRequest, jobs []domain.SequencedJob, counts domain.StatusCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bulk request #%d: %s\n", bulk.ID, bulk.Title)
	fmt.Fprintf(&b, "Provider: %s\n", bulk.Provider)
	fmt.Fprintf(&b, "Status: %s\n", bulk.Status)
	fmt.Fprintf(&b, "Created: %s\n\n", bulk.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Total: %d\nCompleted: %d\nFailed: %d\nProcessing: %d\nPending: %d\n",
		counts.Total, counts.Completed, counts.Failed, counts.Processing, counts.Pending)

	writeSection := func(title string, status domain.JobStatus) {
		first := true
		for _, job := range jobs {
			if job.Status != status {
				continue
			}
			if first {
				fmt.Fprintf(&b, "\n%s:\n", title)
				first = false
			}
			fmt.Fprintf(&b, "%03d %s\n", job.Sequence, job.PromptText)
		}
	}
	writeSection("Completed", domain.JobStatusCompleted)
	writeSection("Failed", domain.JobStatusFailed)
	return b.String()
}
