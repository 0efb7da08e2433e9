package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

const (
	configFailureMessage = "Failed to read workspace configuration"
	cancelledMessage     = "Import cancelled"
	shutdownMessage      = "Import cancelled: shutting down"
)

var stageFailureMessages = map[domain.Stage]string{
	domain.StageStageFile:          "Failed to stage file",
	domain.StageListDirectory:      "Failed to list workspace directories",
	domain.StageDescribeContent:    "Could not describe image, continuing without a description",
	domain.StageRecommendDirectory: "Failed to recommend a directory",
	domain.StageSaveFile:           "Failed to save file",
	domain.StageIngestKnowledge:    "File saved, but adding it to the knowledge base failed",
}

// failureMessage renders the single user-facing message for a stage failure.
// Conversion-flavoured semantic failures carry their reason; everything
// else gets the generic message for the stage.
func failureMessage(stage domain.Stage, err error) string {
	if domain.IsConversionFailure(err) {
		return "conversion failed: " + failureReason(err)
	}
	if msg, ok := stageFailureMessages[stage]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed", stage)
}

func failureReason(err error) string {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	if svcErr != nil {
		return svcErr.Code
	}
	return err.Error()
}
