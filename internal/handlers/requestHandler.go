package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/supplysight/ragapi/internal/adapter"
	"github.com/supplysight/ragapi/internal/adapter/utils"
	"github.com/supplysight/ragapi/internal/api"
	"github.com/supplysight/ragapi/internal/domain/ragmodel"
	"github.com/supplysight/ragapi/internal/metrics"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/ingest"
)

// GetHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{
		Status:  "healthy",
		Service: "knowledge-base-rag",
	})
}

// AskHandler godoc
// @Summary      Ask a question against the knowledge base
// @Description  Answers synchronously. Set use_agentic for multi-step decomposition and synthesis.
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question and options"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.JobResponse "Invalid request"
// @Failure      502      {object}  api.JobResponse "Provider failure"
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("invalid context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.AskRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("could not close request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Question == "" {
		logRH.Warn("bad ask request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "question is required")
		return
	}

	start := time.Now()
	result, err := handlerInstance.ragService.Ask(r.Context(), rag.AskParams{
		Question:       requestData.Question,
		UseAgentic:     requestData.UseAgentic,
		MaxSources:     requestData.MaxSources,
		Temperature:    requestData.Temperature,
		MinScore:       requestData.MinScore,
		ConversationID: requestData.ConversationID,
	})
	metrics.CaptureAskMetrics("/ask", time.Since(start))
	if err != nil {
		writeAskError(w, err)
		return
	}

	metrics.CaptureRetrievedSources(len(result.Sources))
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(result))
}

func writeAskError(w http.ResponseWriter, err error) {
	logRH.Error("ask failed", "error", err)

	var provErr *ragmodel.ProviderError
	var storErr *ragmodel.StorageError
	switch {
	case errors.As(err, &provErr):
		WriteErrorResponse(w, http.StatusBadGateway, "", "generation provider unavailable")
	case errors.As(err, &storErr):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "knowledge base unavailable")
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
	}
}

// PostDocumentHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, stores it and queues an asynchronous ingestion job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The PDF, DOCX, TXT or RTF file to upload"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.JobResponse "Missing fields, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Storage or write error"
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("invalid context by request", "remote", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory(handlerInstance.cfg.UploadDir)
	if errString != "" {
		logRH.Error("could not get target directory", "error", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	if err := r.ParseMultipartForm(handlerInstance.cfg.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "file too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "could not retrieve file")
		return
	}
	defer fileReader.Close()

	if !ingest.SupportedExtension(fileMetadata.Filename) {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "unsupported file type")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "write error")
		return
	}

	newJob := newIngestJob(traceIdFrom(r.Context()), fileMetadata.Filename, tempFilePath)
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id, newJob.documentID))
}

// ListDocumentsHandler godoc
// @Summary      List indexed documents
// @Tags         Documents
// @Produce      json
// @Param        skip   query     int  false  "Documents to skip"
// @Param        limit  query     int  false  "Maximum documents to return"
// @Success      200  {object}  api.DocumentListResponse
// @Failure      503  {object}  api.JobResponse
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	docs, listErr := handlerInstance.ragService.ListDocuments(r.Context(), skip, limit)
	if listErr != nil {
		logRH.Error("could not list documents", "error", listErr)
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "knowledge base unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(docs))
}

// GetDocumentHandler godoc
// @Summary      Get one indexed document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")

	info, found, err := handlerInstance.ragService.GetDocument(r.Context(), id)
	if err != nil {
		logRH.Error("could not get document", "documentId", id, "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "knowledge base unavailable")
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, id, "document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(info))
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document and its chunks
// @Description  Queues an asynchronous deletion job for every chunk of the document.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")

	_, found, err := handlerInstance.ragService.GetDocument(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "knowledge base unavailable")
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, id, "document not found")
		return
	}

	newJob := newDeleteJob(traceIdFrom(r.Context()), id)
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id, id))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceIdFrom(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

// GetHistoryHandler godoc
// @Summary      Get conversation history
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /history/{id} [get]
func GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")

	store := handlerInstance.service.ConversationStore
	if store == nil || !store.ValidateConversationID(r.Context(), id) {
		WriteErrorResponse(w, http.StatusNotFound, id, "conversation not found")
		return
	}

	history, err := store.GetHistory(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "history unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.HistoryResponse{
		ConversationID: id,
		History:        history,
	})
}

// DeleteHistoryHandler godoc
// @Summary      Delete a conversation
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      204  "Deleted"
// @Failure      404  {object}  api.JobResponse
// @Router       /history/{id} [delete]
func DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")

	store := handlerInstance.service.ConversationStore
	if store == nil || !store.ValidateConversationID(r.Context(), id) {
		WriteErrorResponse(w, http.StatusNotFound, id, "conversation not found")
		return
	}

	if err := store.DeleteConversation(r.Context(), id); err != nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "could not delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
