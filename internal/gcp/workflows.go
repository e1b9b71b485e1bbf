package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// WorkflowSink hands each processed document to a Cloud Workflows workflow.
type WorkflowSink struct {
	client *executions.Client
	parent string
}

// NewWorkflowSink targets projects/<projectID>/locations/<location>/workflows/<workflowID>.
func NewWorkflowSink(client *executions.Client, projectID, location, workflowID string) *WorkflowSink {
	return &WorkflowSink{
		client: client,
		parent: WorkflowParent(projectID, location, workflowID),
	}
}

// WorkflowParent builds the fully qualified workflow name.
func WorkflowParent(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

func (s *WorkflowSink) Name() string { return "workflow" }

// Publish starts one execution with the document's id and classification.
func (s *WorkflowSink) Publish(ctx context.Context, doc models.Document, _ string) error {
	arg, err := WorkflowArgument(doc)
	if err != nil {
		return err
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: s.parent,
		Execution: &executionspb.Execution{
			Argument: arg,
		},
	}
	if _, err := s.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

// Close releases the executions client.
func (s *WorkflowSink) Close() error {
	return s.client.Close()
}

// WorkflowArgument is the JSON argument passed to the workflow.
func WorkflowArgument(doc models.Document) (string, error) {
	payload := map[string]interface{}{
		"documentId":  doc.ID,
		"status":      string(doc.Status),
		"lengthClass": doc.LengthClass,
		"pageCount":   doc.PageCount,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	return string(b), nil
}
