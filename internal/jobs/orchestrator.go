// Package jobs binds upload intake, the transform executor and the history
// ledger into one request lifecycle.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stylestudio/internal/domain"
	"stylestudio/internal/storage"
	"stylestudio/internal/styles"
)

// Public URL prefixes for staged uploads and results.
const (
	UploadsPrefix = "/uploads/"
	OutputsPrefix = "/outputs/"
)

// Stager validates and stores uploads.
type Stager interface {
	Accept(ctx context.Context, r io.Reader, filename, mimeType string) (*domain.UploadedAsset, error)
	Remove(asset *domain.UploadedAsset) error
}

// Transformer runs a style pipeline from one file to another.
type Transformer interface {
	Run(ctx context.Context, def styles.Definition, inputPath, outputPath string) error
	CanEncode(ext string) bool
}

// Mirror receives copies of finished artifacts. It is optional.
type Mirror interface {
	Upload(ctx context.Context, objectKey, path string) error
	Remove(ctx context.Context, objectKey string) error
}

// Request is one transformation request.
type Request struct {
	OwnerID   string
	Style     string
	File      io.Reader
	Filename  string
	MIMEType  string
	RequestID string
}

// Result describes a recorded transformation.
type Result struct {
	OriginalImage    string
	TransformedImage string
	Style            string
	HistoryID        string
	Record           domain.TransformationRecord
	Trail            []State
}

// Orchestrator runs transformation jobs.
type Orchestrator struct {
	intake  Stager
	exec    Transformer
	ledger  domain.HistoryLedger
	uploads *storage.FileStore
	outputs *storage.FileStore
	mirror  Mirror
	logger  zerolog.Logger
	now     func() time.Time
}

// Deps groups the collaborators of an Orchestrator.
type Deps struct {
	Intake  Stager
	Exec    Transformer
	Ledger  domain.HistoryLedger
	Uploads *storage.FileStore
	Outputs *storage.FileStore
	Mirror  Mirror
	Logger  zerolog.Logger
}

// New builds an Orchestrator. Mirror may be nil.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		intake:  d.Intake,
		exec:    d.Exec,
		ledger:  d.Ledger,
		uploads: d.Uploads,
		outputs: d.Outputs,
		mirror:  d.Mirror,
		logger:  d.Logger.With().Str("component", "jobs").Logger(),
		now:     time.Now,
	}
}

// Transform validates the style, stages the upload, runs the pipeline and
// records the result. Failures are returned as *Failure. A failed transform
// removes the staged upload; a failed ledger write keeps the output file and
// logs it for reconciliation.
func (o *Orchestrator) Transform(ctx context.Context, req Request) (*Result, error) {
	job := newTracker()
	log := o.logger.With().
		Str("request_id", req.RequestID).
		Str("owner_id", req.OwnerID).
		Str("style", req.Style).
		Logger()

	fail := func(kind FailureKind, err error) (*Result, error) {
		from := job.state
		_ = job.advance(StateFailed)
		log.Warn().Err(err).Str("job_state", string(from)).Str("failure", string(kind)).Msg("job failed")
		return nil, &Failure{Kind: kind, From: from, Err: err}
	}

	if strings.TrimSpace(req.OwnerID) == "" {
		return fail(FailInternal, domain.ErrUnauthorized)
	}
	def, err := styles.Resolve(req.Style)
	if err != nil {
		return fail(FailBadStyle, err)
	}
	if err := job.advance(StateValidated); err != nil {
		return fail(FailInternal, err)
	}

	asset, err := o.intake.Accept(ctx, req.File, req.Filename, req.MIMEType)
	if err != nil {
		return fail(FailBadUpload, err)
	}
	if err := job.advance(StateStaged); err != nil {
		return fail(FailInternal, err)
	}
	log.Debug().Str("upload", asset.Filename).Int64("bytes", asset.SizeBytes).Msg("upload staged")

	outputName := o.outputName(asset.Filename)
	outputPath, err := o.outputs.Path(outputName)
	if err != nil {
		o.discardUpload(log, asset)
		return fail(FailInternal, err)
	}
	if err := o.exec.Run(ctx, def, asset.StoragePath, outputPath); err != nil {
		o.discardUpload(log, asset)
		return fail(FailTransform, err)
	}
	if err := job.advance(StateTransformed); err != nil {
		return fail(FailInternal, err)
	}

	rec := &domain.TransformationRecord{
		OwnerID:    req.OwnerID,
		SourcePath: asset.Filename,
		ResultPath: outputName,
		StyleName:  def.Name,
	}
	id, err := o.ledger.Append(ctx, rec)
	if err != nil {
		log.Error().Err(err).
			Str("upload_path", asset.StoragePath).
			Str("output_path", outputPath).
			Msg("ledger write failed; artifacts left without history record")
		return fail(FailLedgerWriteFailed, err)
	}
	if err := job.advance(StateRecorded); err != nil {
		return fail(FailInternal, err)
	}
	log.Info().Str("history_id", id).Str("output", outputName).Msg("job recorded")

	o.mirrorArtifacts(ctx, log, asset.StoragePath, asset.Filename, outputPath, outputName)

	return &Result{
		OriginalImage:    UploadURL(asset.Filename),
		TransformedImage: OutputURL(outputName),
		Style:            def.Name,
		HistoryID:        id,
		Record:           *rec,
		Trail:            append([]State(nil), job.trail...),
	}, nil
}

// History lists the owner's records, newest first.
func (o *Orchestrator) History(ctx context.Context, ownerID string, limit int) ([]domain.TransformationRecord, error) {
	return o.ledger.ListFor(ctx, ownerID, limit)
}

// HistoryTotal returns how many records the owner has, ignoring any listing limit.
func (o *Orchestrator) HistoryTotal(ctx context.Context, ownerID string) (int, error) {
	return o.ledger.CountFor(ctx, ownerID)
}

// Lookup returns one of the owner's records.
func (o *Orchestrator) Lookup(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	return o.ledger.GetFor(ctx, ownerID, id)
}

// Delete removes the owner's record and then reclaims its files. Missing
// files are ignored.
func (o *Orchestrator) Delete(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	rec, err := o.ledger.DeleteFor(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	log := o.logger.With().Str("owner_id", ownerID).Str("history_id", id).Logger()
	if err := o.uploads.Remove(rec.SourcePath); err != nil {
		log.Warn().Err(err).Str("file", rec.SourcePath).Msg("reclaim upload")
	}
	if err := o.outputs.Remove(rec.ResultPath); err != nil {
		log.Warn().Err(err).Str("file", rec.ResultPath).Msg("reclaim output")
	}
	if o.mirror != nil {
		for _, key := range []string{mirrorKey(UploadsPrefix, rec.SourcePath), mirrorKey(OutputsPrefix, rec.ResultPath)} {
			if err := o.mirror.Remove(ctx, key); err != nil {
				log.Warn().Err(err).Str("object", key).Msg("mirror remove")
			}
		}
	}
	return rec, nil
}

// Artifacts returns the original and transformed bytes of an owner's record.
func (o *Orchestrator) Artifacts(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, []byte, []byte, error) {
	rec, err := o.ledger.GetFor(ctx, ownerID, id)
	if err != nil {
		return nil, nil, nil, err
	}
	original, err := o.uploads.Read(rec.SourcePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read upload: %w", err)
	}
	transformed, err := o.outputs.Read(rec.ResultPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read output: %w", err)
	}
	return rec, original, transformed, nil
}

// outputName derives the result filename from the upload name. Formats the
// engine cannot write fall back to PNG.
func (o *Orchestrator) outputName(uploadName string) string {
	name := fmt.Sprintf("transformed-%d-%s", o.now().UnixMilli(), uploadName)
	ext := filepath.Ext(name)
	if !o.exec.CanEncode(ext) {
		name = strings.TrimSuffix(name, ext) + ".png"
	}
	return name
}

func (o *Orchestrator) discardUpload(log zerolog.Logger, asset *domain.UploadedAsset) {
	if err := o.intake.Remove(asset); err != nil {
		log.Error().Err(err).Str("upload", asset.Filename).Msg("remove staged upload")
	}
}

func (o *Orchestrator) mirrorArtifacts(ctx context.Context, log zerolog.Logger, uploadPath, uploadName, outputPath, outputName string) {
	if o.mirror == nil {
		return
	}
	pairs := [][2]string{
		{mirrorKey(UploadsPrefix, uploadName), uploadPath},
		{mirrorKey(OutputsPrefix, outputName), outputPath},
	}
	for _, p := range pairs {
		if err := o.mirror.Upload(ctx, p[0], p[1]); err != nil {
			log.Warn().Err(err).Str("object", p[0]).Msg("mirror upload")
		}
	}
}

// UploadURL is the public path of a staged upload.
func UploadURL(name string) string { return UploadsPrefix + name }

// OutputURL is the public path of a transformation result.
func OutputURL(name string) string { return OutputsPrefix + name }

func mirrorKey(prefix, name string) string {
	return strings.Trim(prefix, "/") + "/" + name
}

// IsNotFound reports whether err means the record does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
