package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/cryptofolio/src/config"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/security/validation"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// HandleImport accepts one multipart request carrying a whole export batch:
// the ledger and trades files may arrive together, in either order, under the
// repeated "files" field.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = "kraken"
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		utils.SendJSONError(w, "No files in request. Ensure the 'files' field is used.", http.StatusBadRequest)
		return
	}

	var sourceFiles []models.SourceFile
	for _, fileHeader := range fileHeaders {
		if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
			logger.L.Warn("Uploaded file header reports size too large", "filename", fileHeader.Filename, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
			utils.SendJSONError(w, fmt.Sprintf("File %s too large, max %d MB", fileHeader.Filename, config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
			return
		}

		clientContentType := fileHeader.Header.Get("Content-Type")
		if err := validation.ValidateClientContentType(clientContentType); err != nil {
			logger.L.Warn("Invalid client-declared file type", "filename", fileHeader.Filename, "contentType", clientContentType, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			logger.L.Warn("Failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "Failed to read uploaded file.", http.StatusBadRequest)
			return
		}
		defer file.Close()

		detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
		if err != nil {
			logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

		sourceFiles = append(sourceFiles, models.SourceFile{Name: fileHeader.Filename, Reader: file})
	}

	logger.L.Info("Processing import request", "source", source, "files", len(sourceFiles))
	result, err := h.importService.ProcessImport(sourceFiles, source)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Import failed due to CSV parsing errors", "source", source, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing export files: %v", err), http.StatusBadRequest)
		} else if errors.Is(err, services.ErrProcessingFailed) {
			logger.L.Warn("Import failed during transaction processing", "source", source, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error processing transactions: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing import", "source", source, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the import. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for import result", "error", err)
	}
}
