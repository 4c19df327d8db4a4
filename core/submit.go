package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"go.uber.org/zap"
)

// SubmissionService validates survey submissions and applies them as accumulator increments.
type SubmissionService struct {
	writer   contract.SubmissionWriter
	catalog  *schema.Catalog
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSubmissionService creates a SubmissionService. A nil logger disables logging.
func NewSubmissionService(writer contract.SubmissionWriter, catalog *schema.Catalog, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		writer:   writer,
		catalog:  catalog,
		validate: NewValidator(),
		logger:   logger,
	}
}

// NewValidator returns a validator that knows the "department" and "position" tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return schema.Department(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		_, ok := schema.ValidPositions[schema.Position(fl.Field().String())]
		return ok
	})
	return v
}

// Submit validates the submission and applies it for userID in one store transaction.
// A repeat submission fails with contract.ErrAlreadyCompleted.
func (s *SubmissionService) Submit(ctx context.Context, userID string, sub schema.Submission) error {
	plan, err := s.Plan(sub)
	if err != nil {
		s.logger.Info("submission rejected", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := s.writer.ApplySubmission(ctx, userID, plan); err != nil {
		if errors.Is(err, contract.ErrAlreadyCompleted) {
			s.logger.Info("repeat submission", zap.String("user_id", userID))
		} else {
			s.logger.Error("submission failed", zap.String("user_id", userID), zap.Error(err))
		}
		return err
	}

	s.logger.Info("submission applied",
		zap.String("user_id", userID),
		zap.String("department", string(sub.Department)),
		zap.Int("cells", len(plan.Cells)),
		zap.Int("organization_cells", len(plan.Organization)),
		zap.Int("text_responses", len(plan.TextResponses)))
	return nil
}

// Plan turns a submission into the list of writes, or fails with ErrInvalidInput.
func (s *SubmissionService) Plan(sub schema.Submission) (schema.SubmissionPlan, error) {
	if err := s.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return schema.SubmissionPlan{}, contract.NewInputError(verrs[0].Namespace(), verrs[0].Tag())
		}
		return schema.SubmissionPlan{}, contract.NewInputError("submission", err.Error())
	}

	var plan schema.SubmissionPlan

	seenOwn := make(map[int]bool, len(sub.OwnAnswers))
	for _, ans := range sub.OwnAnswers {
		if _, ok := s.catalog.CategoryOfOwn(ans.Question); !ok {
			return schema.SubmissionPlan{}, contract.NewInputError("ownDeptAnswers", fmt.Sprintf("question %d is not an own-department question", ans.Question))
		}
		if seenOwn[ans.Question] {
			return schema.SubmissionPlan{}, contract.NewInputError("ownDeptAnswers", fmt.Sprintf("question %d answered twice", ans.Question))
		}
		seenOwn[ans.Question] = true
		plan.Cells = append(plan.Cells, schema.CellIncrement{
			Department: sub.Department, Kind: schema.OwnSlot, Question: ans.Question, Score: ans.Score,
		})
	}

	if len(sub.PeerAnswers) > 0 && sub.Position != schema.ExecutivePosition {
		return schema.SubmissionPlan{}, contract.NewInputError("otherDeptAnswers", "only executives rate other departments")
	}
	type peerKey struct {
		slot   int
		target schema.Department
	}
	seenPeer := make(map[peerKey]bool, len(sub.PeerAnswers))
	for _, ans := range sub.PeerAnswers {
		slot, ok := s.catalog.PeerSlotForQuestion(ans.Question)
		if !ok {
			return schema.SubmissionPlan{}, contract.NewInputError("otherDeptAnswers", fmt.Sprintf("question %d is not a peer-evaluation question", ans.Question))
		}
		if ans.Target == sub.Department {
			return schema.SubmissionPlan{}, contract.NewInputError("otherDeptAnswers", "a department cannot rate itself")
		}
		key := peerKey{slot, ans.Target}
		if seenPeer[key] {
			return schema.SubmissionPlan{}, contract.NewInputError("otherDeptAnswers", fmt.Sprintf("question %d for %s answered twice", ans.Question, ans.Target))
		}
		seenPeer[key] = true
		plan.Cells = append(plan.Cells, schema.CellIncrement{
			Department: ans.Target, Kind: schema.PeerSlot, Question: slot, Score: ans.Score,
		})
	}

	seenOrg := make(map[int]bool, len(sub.OrganizationAnswers))
	for _, ans := range sub.OrganizationAnswers {
		q, ok := s.catalog.Question(ans.Question)
		if !ok || q.Section != schema.OrganizationSection || !q.IsScale() {
			return schema.SubmissionPlan{}, contract.NewInputError("managementAnswers", fmt.Sprintf("question %d is not an organization-wide scale question", ans.Question))
		}
		if seenOrg[ans.Question] {
			return schema.SubmissionPlan{}, contract.NewInputError("managementAnswers", fmt.Sprintf("question %d answered twice", ans.Question))
		}
		seenOrg[ans.Question] = true
		plan.Organization = append(plan.Organization, schema.OrganizationIncrement{Question: ans.Question, Score: ans.Score})
	}

	seenText := make(map[int]bool, len(sub.TextAnswers))
	for _, ans := range sub.TextAnswers {
		q, ok := s.catalog.Question(ans.Question)
		if !ok || !q.IsFreeText() {
			return schema.SubmissionPlan{}, contract.NewInputError("textAnswers", fmt.Sprintf("question %d is not a free-text question", ans.Question))
		}
		if seenText[ans.Question] {
			return schema.SubmissionPlan{}, contract.NewInputError("textAnswers", fmt.Sprintf("question %d answered twice", ans.Question))
		}
		seenText[ans.Question] = true
		text := strings.TrimSpace(ans.Text)
		if text == "" {
			continue
		}
		plan.TextResponses = append(plan.TextResponses, schema.TextResponse{
			Question: ans.Question, Text: q.Text, Response: text,
		})
	}

	return plan, nil
}
