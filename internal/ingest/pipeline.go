// Package ingest turns external files into stored resources: fetch,
// extract, upsert, index. Folder runs are batch jobs that survive
// per-file failures; the summary result says what happened.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/drive"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/events"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/extract"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/vector"

	"gorm.io/datatypes"
)

const (
	dbWriteRetries = 3
	dbRetryBackoff = time.Second
)

// Source lists and downloads external files. The Drive client is the
// production implementation; tests substitute fakes.
type Source interface {
	ListFolder(ctx context.Context, folderID string) ([]drive.FileMeta, error)
	GetFile(ctx context.Context, fileID string) (*drive.FileMeta, error)
	Fetch(ctx context.Context, meta *drive.FileMeta) ([]byte, error)
}

// Archiver keeps a raw copy of fetched bytes. Archival is best-effort:
// a failed archive never fails an ingest.
type Archiver interface {
	Store(ctx context.Context, key string, data []byte) error
}

// Result summarizes one ingestion run.
type Result struct {
	OK        bool     `json:"ok"`
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Errored   int      `json:"errored"`
	Errors    []string `json:"errors,omitempty"`
}

type Pipeline struct {
	source    Source
	extractor extract.Extractor
	resources *store.ResourceStore
	perms     *store.PermissionStore
	users     *store.UserStore
	index     vector.Index
	archiver  Archiver
	log       *logger.Logger
}

// New wires the pipeline. index and archiver may be nil; the matching
// steps are skipped.
func New(
	source Source,
	extractor extract.Extractor,
	resources *store.ResourceStore,
	perms *store.PermissionStore,
	users *store.UserStore,
	index vector.Index,
	archiver Archiver,
) *Pipeline {
	return &Pipeline{
		source:    source,
		extractor: extractor,
		resources: resources,
		perms:     perms,
		users:     users,
		index:     index,
		archiver:  archiver,
		log:       logger.New("ingest"),
	}
}

// IngestFile syncs a single file by its share URL.
func (p *Pipeline) IngestFile(ctx context.Context, fileURL, uploadedBy string) Result {
	fileID := drive.ParseFileID(fileURL)
	if fileID == "" {
		return Result{Message: "invalid file URL: " + fileURL}
	}

	meta, err := p.source.GetFile(ctx, fileID)
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to fetch file metadata: %v", err), Errored: 1}
	}

	if err := p.ingestOne(ctx, meta, uploadedBy); err != nil {
		return Result{Message: err.Error(), Errored: 1}
	}
	return Result{OK: true, Message: "Synced " + meta.Name, Processed: 1}
}

// IngestFolder syncs every file in a folder. Individual failures are
// recorded and the run continues; the run succeeds when at least one
// file made it through.
func (p *Pipeline) IngestFolder(ctx context.Context, folderURL, uploadedBy string) Result {
	folderID := drive.ParseFolderID(folderURL)
	if folderID == "" {
		return Result{Message: "invalid folder URL: " + folderURL}
	}

	files, err := p.source.ListFolder(ctx, folderID)
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to list folder: %v", err)}
	}
	if len(files) == 0 {
		return Result{Message: "folder is empty"}
	}

	res := Result{}
	for i := range files {
		meta := &files[i]
		if err := p.ingestOne(ctx, meta, uploadedBy); err != nil {
			p.log.Warn("Skipping %s: %v", meta.Name, err)
			res.Errored++
			res.Errors = append(res.Errors, meta.Name+": "+err.Error())
			continue
		}
		res.Processed++
	}

	res.OK = res.Processed > 0
	res.Message = fmt.Sprintf("Synced %d of %d files", res.Processed, len(files))
	return res
}

func (p *Pipeline) ingestOne(ctx context.Context, meta *drive.FileMeta, uploadedBy string) error {
	data, err := p.source.Fetch(ctx, meta)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if p.archiver != nil {
		if err := p.archiver.Store(ctx, meta.ID+"/"+meta.Name, data); err != nil {
			p.log.Warn("Archive copy of %s failed: %v", meta.Name, err)
		}
	}

	fileType := extract.DetectFileType(meta.Name, meta.MimeType, data)
	var text string
	if fileType == "" {
		text = extract.UnsupportedMessage
	} else {
		text = p.extractor.ExtractText(data, fileType)
	}
	if text == "" {
		text = "[No text content found in " + meta.Name + "]"
	}

	// A failed re-extraction must not erase stored text: when the new
	// result is a failure sentinel and the row already holds readable
	// text, write nil so the upsert keeps what is there. A first insert
	// still stores the sentinel so the resource stays visible.
	textPtr := &text
	if extract.IsErrorText(text) {
		if prev, err := p.resources.GetByURL(ctx, drive.FileURL(meta.ID)); err == nil {
			if prevText := prev.Text(); prevText != "" && !extract.IsErrorText(prevText) {
				textPtr = nil
			}
		}
	}

	metaJSON, _ := json.Marshal(map[string]string{
		"drive_id":      meta.ID,
		"mime_type":     meta.MimeType,
		"size":          meta.Size,
		"modified_time": meta.ModifiedTime,
	})

	up := store.Upsert{
		Name:          meta.Name,
		URL:           drive.FileURL(meta.ID),
		FileType:      fileType,
		UploadedBy:    uploadedBy,
		ExtractedText: textPtr,
		Meta:          datatypes.JSON(metaJSON),
	}

	res, err := p.upsertWithRetry(ctx, up)
	if err != nil {
		return fmt.Errorf("database write failed: %w", err)
	}

	p.grantUploader(ctx, res, uploadedBy)
	p.indexResource(ctx, res)

	events.Emit(events.EventResourceSynced, res.ID)
	return nil
}

// upsertWithRetry absorbs transient database trouble during batch runs.
// Only the DB write is retried; fetch and extraction are not.
func (p *Pipeline) upsertWithRetry(ctx context.Context, up store.Upsert) (*models.Resource, error) {
	var res *models.Resource
	var err error
	for attempt := 1; attempt <= dbWriteRetries; attempt++ {
		res, err = p.resources.UpsertByURL(ctx, up)
		if err == nil {
			return res, nil
		}
		p.log.Warn("Upsert attempt %d/%d for %s failed: %v", attempt, dbWriteRetries, up.Name, err)
		if attempt < dbWriteRetries {
			select {
			case <-time.After(dbRetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, err
}

// grantUploader gives the uploading user an explicit grant on the
// resource. uploadedBy is a username; non-user identities like the
// scheduler get no grant. Best-effort.
func (p *Pipeline) grantUploader(ctx context.Context, res *models.Resource, uploadedBy string) {
	if p.perms == nil || uploadedBy == "" {
		return
	}
	user, err := p.users.GetByUsername(ctx, uploadedBy)
	if err != nil {
		return
	}
	if err := p.perms.Grant(ctx, user.ID, res.ID, user.ID); err != nil {
		p.log.Warn("Failed to grant uploader access on %s: %v", res.Name, err)
	}
}

// indexResource pushes readable text into the vector index. Error-tagged
// and placeholder text stays out; index failures never fail the ingest.
func (p *Pipeline) indexResource(ctx context.Context, res *models.Resource) {
	if p.index == nil {
		return
	}
	text := res.Text()
	if text == "" || text[0] == '[' {
		return
	}
	entry := vector.Entry{
		ID:   res.URL,
		Text: text,
		Metadata: map[string]string{
			"name":      res.Name,
			"url":       res.URL,
			"file_type": res.FileType,
		},
	}
	if err := p.index.Upsert(ctx, entry); err != nil {
		p.log.Warn("Vector index update for %s failed: %v", res.Name, err)
	}
}
