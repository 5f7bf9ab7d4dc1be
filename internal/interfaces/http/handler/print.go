package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	printingapp "github.com/spoolgate/backend/internal/application/printing"
	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
	"github.com/spoolgate/backend/internal/interfaces/http/middleware"
)

// UploadFormField is the multipart field carrying the document
const UploadFormField = "file"

// Documents is the document lifecycle used by the print endpoints
type Documents interface {
	Upload(ctx context.Context, req *printingapp.UploadRequest) (*domain.DocumentHandle, error)
	Open(ctx context.Context, id string) (*storage.Document, error)
	Discard(ctx context.Context, id string) error
}

// PrinterQueries answers status and device questions
type PrinterQueries interface {
	Status() *domain.StatusSnapshot
	Devices() []domain.Device
	DeviceOptions(ctx context.Context, device string) ([]domain.DeviceOption, error)
}

// JobSubmitter hands stored documents to the spooler
type JobSubmitter interface {
	Submit(ctx context.Context, req printingapp.SubmitRequest) (*domain.JobResult, error)
}

// PrintHandler handles print-related API endpoints
type PrintHandler struct {
	BaseHandler
	documents Documents
	queries   PrinterQueries
	jobs      JobSubmitter
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(documents Documents, queries PrinterQueries, jobs JobSubmitter) *PrintHandler {
	return &PrintHandler{
		documents: documents,
		queries:   queries,
		jobs:      jobs,
	}
}

// Upload stores a multipart document and returns its handle
//
//	@Summary	Upload a document
//	@Tags		print
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"PDF, image or text document"
//	@Success	200		{object}	dto.Response{data=domain.DocumentHandle}
//	@Failure	400		{object}	dto.Response
//	@Failure	413		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/print/upload [post]
func (h *PrintHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile(UploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.HandleError(c, domain.ErrFileTooLarge)
			return
		}
		h.HandleError(c, domain.NewValidationError("No file uploaded"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	mediaType := fileHeader.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}

	handle, err := h.documents.Upload(c.Request.Context(), &printingapp.UploadRequest{
		Content:      file,
		Size:         fileHeader.Size,
		OriginalName: fileHeader.Filename,
		MediaType:    mediaType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, handle)
}

// Preview streams a stored document inline
//
//	@Summary	Preview an uploaded document
//	@Tags		print
//	@Produce	application/pdf,image/png,image/jpeg,text/plain
//	@Param		file	query		string	true	"Document handle"
//	@Success	200		{file}		file	"Document bytes"
//	@Failure	404		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/print/preview [get]
func (h *PrintHandler) Preview(c *gin.Context) {
	var query dto.PreviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	doc, err := h.documents.Open(c.Request.Context(), query.File)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer doc.Close()

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": doc.DisplayName})
	if disposition == "" {
		disposition = "inline"
	}
	c.Header("Content-Type", domain.ContentTypeForName(doc.ID))
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, doc.ID, doc.CreatedAt, doc)
}

// Discard deletes a stored document the client no longer wants to print
//
//	@Summary	Discard an uploaded document
//	@Tags		print
//	@Produce	json
//	@Param		id	path		string	true	"Document handle"
//	@Success	200	{object}	dto.Response{data=dto.DiscardResponse}
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/print/files/{id} [delete]
func (h *PrintHandler) Discard(c *gin.Context) {
	id := c.Param("id")
	if err := h.documents.Discard(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.DiscardResponse{Handle: id, Deleted: true})
}

// Status reports the cached daemon and device snapshot
//
//	@Summary	Spooler status
//	@Tags		print
//	@Produce	json
//	@Success	200	{object}	dto.Response{data=dto.StatusResponse}
//	@Security	BearerAuth
//	@Router		/print/status [get]
func (h *PrintHandler) Status(c *gin.Context) {
	h.Success(c, dto.NewStatusResponse(h.queries.Status()))
}

// Printers lists the devices of the cached snapshot
//
//	@Summary	List printers
//	@Tags		print
//	@Produce	json
//	@Success	200	{object}	dto.Response{data=dto.PrintersResponse}
//	@Security	BearerAuth
//	@Router		/print/printers [get]
func (h *PrintHandler) Printers(c *gin.Context) {
	devices := h.queries.Devices()
	h.SuccessWithTotal(c, dto.NewPrintersResponse(devices), len(devices))
}

// Options lists the driver options of one printer
//
//	@Summary	List printer options
//	@Tags		print
//	@Produce	json
//	@Param		name	path		string	true	"Printer name"
//	@Success	200		{object}	dto.Response{data=dto.OptionsResponse}
//	@Failure	400		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/print/printers/{name}/options [get]
func (h *PrintHandler) Options(c *gin.Context) {
	name := c.Param("name")
	options, err := h.queries.DeviceOptions(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if options == nil {
		options = []domain.DeviceOption{}
	}
	h.Success(c, dto.OptionsResponse{Printer: name, Options: options})
}

// SubmitJob prints a stored document
//
//	@Summary		Submit a print job
//	@Description	Hands a stored document to the spooler. The document is deleted afterwards whatever the outcome.
//	@Tags			print
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SubmitJobRequest	true	"Job request"
//	@Success		200		{object}	dto.Response{data=domain.JobResult}
//	@Failure		400		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Failure		503		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/print/jobs [post]
func (h *PrintHandler) SubmitJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.jobs.Submit(c.Request.Context(), printingapp.SubmitRequest{
		HandleID: req.Handle,
		Device:   req.Printer,
		Options:  req.Options,
	})
	if err != nil {
		logger.GetGinLogger(c).Info("Print job refused",
			zap.String("handle", req.Handle),
			zap.String("printer", req.Printer),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
