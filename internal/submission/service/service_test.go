package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"simkah/internal/audit"
	"simkah/internal/domain"
	"simkah/internal/submission/store/memory"
	"simkah/internal/ticket"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
	"simkah/pkg/requestcontext"
)

// recordingPublisher captures emitted audit events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingPublisher) Emit(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) lastAction() audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1].Action
}

type ServiceTestSuite struct {
	suite.Suite

	store     *memory.Store
	publisher *recordingPublisher
	svc       *Service

	clerk    Actor
	operator Actor
	verifier Actor
	monitor  Actor

	now time.Time
	ctx context.Context
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = memory.New()
	s.publisher = &recordingPublisher{}
	s.svc = New(s.store, ticket.NewAllocator(ticket.NewInMemorySequencer()),
		WithAuditPublisher(s.publisher),
	)

	s.clerk = Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
	s.operator = Actor{ID: id.ActorID(uuid.New()), Role: id.RoleOperator}
	s.verifier = Actor{ID: id.ActorID(uuid.New()), Role: id.RoleVerifier}
	s.monitor = Actor{ID: id.ActorID(uuid.New()), Role: id.RoleMonitor}

	s.now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceTestSuite) validInput() MarriageInput {
	return MarriageInput{
		HusbandNIK:   "3201012501900001",
		HusbandName:  "Ahmad Fauzi",
		WifeNIK:      "3201016302920002",
		WifeName:     "Siti Rahma",
		MarriageDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		ScenarioID:   1,
	}
}

func (s *ServiceTestSuite) completeDocs() []domain.Document {
	types := []domain.DocType{
		domain.DocBukuNikah,
		domain.DocKTPSuami,
		domain.DocKTPIstri,
		domain.DocKKSuami,
		domain.DocKKIstri,
	}
	docs := make([]domain.Document, 0, len(types))
	for _, t := range types {
		docs = append(docs, domain.Document{
			Type:     t,
			FileRef:  "files/" + uuid.NewString(),
			Filename: string(t) + ".pdf",
			MimeType: "application/pdf",
			Size:     2048,
		})
	}
	return docs
}

func (s *ServiceTestSuite) createDraft() *domain.Submission {
	sub, err := s.svc.Create(s.ctx, s.clerk, s.validInput(), s.completeDocs())
	s.Require().NoError(err)
	return sub
}

func (s *ServiceTestSuite) createSubmitted() *domain.Submission {
	draft := s.createDraft()
	sub, err := s.svc.Submit(s.ctx, s.clerk, draft.ID, "")
	s.Require().NoError(err)
	return sub
}

func (s *ServiceTestSuite) createProcessing(assignee Actor) *domain.Submission {
	submitted := s.createSubmitted()
	sub, err := s.svc.Claim(s.ctx, assignee, submitted.ID)
	s.Require().NoError(err)
	return sub
}

func (s *ServiceTestSuite) createPendingVerification(assignee Actor) *domain.Submission {
	processing := s.createProcessing(assignee)
	sub, err := s.svc.SendToVerification(s.ctx, assignee, processing.ID, "checks complete")
	s.Require().NoError(err)
	return sub
}

func (s *ServiceTestSuite) TestCreate() {
	s.Run("creates draft with ticket number", func() {
		sub, err := s.svc.Create(s.ctx, s.clerk, s.validInput(), s.completeDocs())
		s.Require().NoError(err)

		s.Equal(domain.StatusDraft, sub.Status)
		s.Equal(s.clerk.ID, sub.Creator)
		s.Nil(sub.CurrentAssignee)
		s.Regexp(regexp.MustCompile(`^SUB-20240110-\d{4}$`), sub.TicketNumber)
		s.Len(sub.Documents, 5)
		s.Equal(audit.ActionSubmissionCreated, s.publisher.lastAction())
	})

	s.Run("ticket numbers are unique and sequential", func() {
		first, err := s.svc.Create(s.ctx, s.clerk, s.validInput(), nil)
		s.Require().NoError(err)
		second, err := s.svc.Create(s.ctx, s.clerk, s.validInput(), nil)
		s.Require().NoError(err)
		s.NotEqual(first.TicketNumber, second.TicketNumber)
	})

	s.Run("copies scenario flags onto the payload", func() {
		input := s.validInput()
		input.ScenarioID = 5
		sub, err := s.svc.Create(s.ctx, s.clerk, input, s.completeDocs())
		s.Require().NoError(err)
		s.True(sub.Marriage.OutsideDistrict)
	})

	s.Run("rejects non-clerk roles", func() {
		_, err := s.svc.Create(s.ctx, s.operator, s.validInput(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects unknown scenario", func() {
		input := s.validInput()
		input.ScenarioID = 99
		_, err := s.svc.Create(s.ctx, s.clerk, input, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceTestSuite) TestUpdate() {
	s.Run("creator replaces content while draft", func() {
		draft := s.createDraft()

		input := s.validInput()
		input.WifeName = "Siti Rahmawati"
		updated, err := s.svc.Update(s.ctx, s.clerk, draft.ID, input, s.completeDocs()[:3])
		s.Require().NoError(err)

		s.Equal("Siti Rahmawati", updated.Marriage.WifeName)
		s.Len(updated.Documents, 3)
		s.Equal(audit.ActionSubmissionUpdated, s.publisher.lastAction())
	})

	s.Run("rejects non-creator", func() {
		draft := s.createDraft()
		other := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		_, err := s.svc.Update(s.ctx, other, draft.ID, s.validInput(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects edits after submission", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.Update(s.ctx, s.clerk, submitted.ID, s.validInput(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("allows edits after return for revision", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.ReturnForRevision(s.ctx, s.operator, submitted.ID, "wife NIK mismatch")
		s.Require().NoError(err)

		_, err = s.svc.Update(s.ctx, s.clerk, submitted.ID, s.validInput(), s.completeDocs())
		s.NoError(err)
	})

	s.Run("unknown submission", func() {
		_, err := s.svc.Update(s.ctx, s.clerk, id.SubmissionID(uuid.New()), s.validInput(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceTestSuite) TestSubmit() {
	s.Run("moves draft to submitted with one log entry", func() {
		draft := s.createDraft()
		sub, err := s.svc.Submit(s.ctx, s.clerk, draft.ID, "initial filing")
		s.Require().NoError(err)

		s.Equal(domain.StatusSubmitted, sub.Status)
		s.Require().Len(sub.StatusLog, 1)
		s.Equal(domain.StatusDraft, sub.StatusLog[0].PreviousStatus)
		s.Equal(domain.StatusSubmitted, sub.StatusLog[0].NewStatus)
		s.Equal("initial filing", sub.StatusLog[0].Notes)
		s.Equal(audit.ActionSubmissionSubmitted, s.publisher.lastAction())
	})

	s.Run("rejects incomplete documents listing every missing type", func() {
		docs := s.completeDocs()[:3]
		draft, err := s.svc.Create(s.ctx, s.clerk, s.validInput(), docs)
		s.Require().NoError(err)

		_, err = s.svc.Submit(s.ctx, s.clerk, draft.ID, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeIncompleteDocuments))
		missing, ok := dErrors.DetailsOf(err)["missing"].([]string)
		s.Require().True(ok)
		s.Len(missing, 2)
	})

	s.Run("rejects marriage date inside the lead time window", func() {
		input := s.validInput()
		input.MarriageDate = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
		draft, err := s.svc.Create(s.ctx, s.clerk, input, s.completeDocs())
		s.Require().NoError(err)

		_, err = s.svc.Submit(s.ctx, s.clerk, draft.ID, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeLeadTimeViolation))
		s.Equal("2024-01-12", dErrors.DetailsOf(err)["earliest_allowed"])
	})

	s.Run("accepts marriage date exactly two days out", func() {
		input := s.validInput()
		input.MarriageDate = time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
		draft, err := s.svc.Create(s.ctx, s.clerk, input, s.completeDocs())
		s.Require().NoError(err)

		_, err = s.svc.Submit(s.ctx, s.clerk, draft.ID, "")
		s.NoError(err)
	})

	s.Run("only the creator may submit", func() {
		draft := s.createDraft()
		other := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		_, err := s.svc.Submit(s.ctx, other, draft.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("resubmitting is a no-op", func() {
		submitted := s.createSubmitted()
		again, err := s.svc.Submit(s.ctx, s.clerk, submitted.ID, "")
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, again.Status)

		log, err := s.svc.History(s.ctx, s.clerk, submitted.ID)
		s.Require().NoError(err)
		s.Len(log, 1)
	})

	s.Run("cannot submit while processing", func() {
		processing := s.createProcessing(s.operator)
		_, err := s.svc.Submit(s.ctx, s.clerk, processing.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("resubmit after revision", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.ReturnForRevision(s.ctx, s.operator, submitted.ID, "fix documents")
		s.Require().NoError(err)

		sub, err := s.svc.Submit(s.ctx, s.clerk, submitted.ID, "corrected")
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, sub.Status)
		s.Len(sub.StatusLog, 3)
	})
}

func (s *ServiceTestSuite) TestClaim() {
	s.Run("operator claims a submitted dossier", func() {
		submitted := s.createSubmitted()
		sub, err := s.svc.Claim(s.ctx, s.operator, submitted.ID)
		s.Require().NoError(err)

		s.Equal(domain.StatusProcessing, sub.Status)
		s.Require().NotNil(sub.CurrentAssignee)
		s.Equal(s.operator.ID, *sub.CurrentAssignee)
		s.Equal(audit.ActionSubmissionClaimed, s.publisher.lastAction())
	})

	s.Run("second claimant is rejected", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.Claim(s.ctx, s.operator, submitted.ID)
		s.Require().NoError(err)

		_, err = s.svc.Claim(s.ctx, s.verifier, submitted.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyClaimed))
	})

	s.Run("re-claim by the assignee is a no-op", func() {
		processing := s.createProcessing(s.operator)
		sub, err := s.svc.Claim(s.ctx, s.operator, processing.ID)
		s.Require().NoError(err)

		s.Equal(domain.StatusProcessing, sub.Status)
		log, err := s.svc.History(s.ctx, s.operator, processing.ID)
		s.Require().NoError(err)
		s.Len(log, 2)
	})

	s.Run("clerks and monitors cannot claim", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.Claim(s.ctx, s.clerk, submitted.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.svc.Claim(s.ctx, s.monitor, submitted.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("claiming a draft is an invalid transition", func() {
		draft := s.createDraft()
		_, err := s.svc.Claim(s.ctx, s.operator, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown submission", func() {
		_, err := s.svc.Claim(s.ctx, s.operator, id.SubmissionID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("exactly one of many concurrent claimants wins", func() {
		submitted := s.createSubmitted()

		const claimants = 20
		var wg sync.WaitGroup
		wins := make(chan id.ActorID, claimants)
		losses := make(chan error, claimants)

		for i := 0; i < claimants; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				actor := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleOperator}
				if _, err := s.svc.Claim(s.ctx, actor, submitted.ID); err != nil {
					losses <- err
					return
				}
				wins <- actor.ID
			}()
		}
		wg.Wait()
		close(wins)
		close(losses)

		s.Len(wins, 1)
		winner := <-wins
		for err := range losses {
			s.True(dErrors.HasCode(err, dErrors.CodeAlreadyClaimed))
		}

		sub, err := s.svc.Get(s.ctx, s.monitor, submitted.ID)
		s.Require().NoError(err)
		s.Require().NotNil(sub.CurrentAssignee)
		s.Equal(winner, *sub.CurrentAssignee)
		s.Len(sub.StatusLog, 2)
	})
}

func (s *ServiceTestSuite) TestReturnForRevision() {
	s.Run("any staff member returns from the queue", func() {
		submitted := s.createSubmitted()
		sub, err := s.svc.ReturnForRevision(s.ctx, s.verifier, submitted.ID, "husband KTP expired")
		s.Require().NoError(err)

		s.Equal(domain.StatusNeedsRevision, sub.Status)
		s.Nil(sub.CurrentAssignee)
		s.Equal(audit.ActionSubmissionReturned, s.publisher.lastAction())
	})

	s.Run("only the assignee returns from processing", func() {
		processing := s.createProcessing(s.operator)
		_, err := s.svc.ReturnForRevision(s.ctx, s.verifier, processing.ID, "notes")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignee))

		sub, err := s.svc.ReturnForRevision(s.ctx, s.operator, processing.ID, "incomplete KK data")
		s.Require().NoError(err)
		s.Equal(domain.StatusNeedsRevision, sub.Status)
		s.Nil(sub.CurrentAssignee)
	})

	s.Run("notes are mandatory", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.ReturnForRevision(s.ctx, s.operator, submitted.ID, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("clerks cannot return", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.ReturnForRevision(s.ctx, s.clerk, submitted.ID, "notes")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("cannot return a draft", func() {
		draft := s.createDraft()
		_, err := s.svc.ReturnForRevision(s.ctx, s.operator, draft.ID, "notes")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceTestSuite) TestSendToVerification() {
	s.Run("assignee forwards and releases the claim", func() {
		processing := s.createProcessing(s.operator)
		sub, err := s.svc.SendToVerification(s.ctx, s.operator, processing.ID, "data checked")
		s.Require().NoError(err)

		s.Equal(domain.StatusPendingVerification, sub.Status)
		s.Nil(sub.CurrentAssignee)
		s.Equal(audit.ActionSubmissionForwarded, s.publisher.lastAction())
	})

	s.Run("non-assignee cannot forward", func() {
		processing := s.createProcessing(s.operator)
		_, err := s.svc.SendToVerification(s.ctx, s.verifier, processing.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignee))
	})

	s.Run("cannot forward from the queue without claiming", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.SendToVerification(s.ctx, s.operator, submitted.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignee))
	})
}

func (s *ServiceTestSuite) TestDecide() {
	s.Run("verifier approves", func() {
		pending := s.createPendingVerification(s.operator)
		sub, err := s.svc.Decide(s.ctx, s.verifier, pending.ID, domain.StatusApproved, "all checks pass")
		s.Require().NoError(err)

		s.Equal(domain.StatusApproved, sub.Status)
		s.Nil(sub.CurrentAssignee)
		s.Equal(audit.ActionSubmissionDecided, s.publisher.lastAction())
	})

	s.Run("verifier rejects", func() {
		pending := s.createPendingVerification(s.operator)
		sub, err := s.svc.Decide(s.ctx, s.verifier, pending.ID, domain.StatusRejected, "NIK does not match registry")
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, sub.Status)
	})

	s.Run("operators cannot decide", func() {
		pending := s.createPendingVerification(s.operator)
		_, err := s.svc.Decide(s.ctx, s.operator, pending.ID, domain.StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("decision must be a terminal status", func() {
		pending := s.createPendingVerification(s.operator)
		_, err := s.svc.Decide(s.ctx, s.verifier, pending.ID, domain.StatusProcessing, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cannot decide outside pending verification", func() {
		submitted := s.createSubmitted()
		_, err := s.svc.Decide(s.ctx, s.verifier, submitted.ID, domain.StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("terminal states admit no further transitions", func() {
		pending := s.createPendingVerification(s.operator)
		_, err := s.svc.Decide(s.ctx, s.verifier, pending.ID, domain.StatusApproved, "")
		s.Require().NoError(err)

		_, err = s.svc.Decide(s.ctx, s.verifier, pending.ID, domain.StatusRejected, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		_, err = s.svc.ReturnForRevision(s.ctx, s.operator, pending.ID, "notes")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceTestSuite) TestGetVisibility() {
	s.Run("clerk sees only own submissions", func() {
		draft := s.createDraft()
		_, err := s.svc.Get(s.ctx, s.clerk, draft.ID)
		s.NoError(err)

		other := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		_, err = s.svc.Get(s.ctx, other, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("staff and monitors see everything", func() {
		draft := s.createDraft()
		for _, actor := range []Actor{s.operator, s.verifier, s.monitor} {
			_, err := s.svc.Get(s.ctx, actor, draft.ID)
			s.NoError(err)
		}
	})
}

func (s *ServiceTestSuite) TestQueue() {
	s.Run("active queue comes back oldest first", func() {
		first := s.createSubmitted()
		s.ctx = requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
		second := s.createSubmitted()

		subs, err := s.svc.Queue(s.ctx, s.operator, QueueFilter{Status: domain.StatusSubmitted})
		s.Require().NoError(err)
		s.Require().Len(subs, 2)
		s.Equal(first.ID, subs[0].ID)
		s.Equal(second.ID, subs[1].ID)
	})

	s.Run("clerk listing is scoped to own submissions", func() {
		me := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		mine, err := s.svc.Create(s.ctx, me, s.validInput(), nil)
		s.Require().NoError(err)
		other := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		_, err = s.svc.Create(s.ctx, other, s.validInput(), nil)
		s.Require().NoError(err)

		subs, err := s.svc.Queue(s.ctx, me, QueueFilter{})
		s.Require().NoError(err)
		s.Require().Len(subs, 1)
		s.Equal(mine.ID, subs[0].ID)
	})

	s.Run("staff listing requires a valid status", func() {
		_, err := s.svc.Queue(s.ctx, s.operator, QueueFilter{Status: "BOGUS"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceTestSuite) TestHistory() {
	s.Run("records the full round trip in order", func() {
		draft := s.createDraft()
		_, err := s.svc.Submit(s.ctx, s.clerk, draft.ID, "filed")
		s.Require().NoError(err)
		_, err = s.svc.Claim(s.ctx, s.operator, draft.ID)
		s.Require().NoError(err)
		_, err = s.svc.SendToVerification(s.ctx, s.operator, draft.ID, "checked")
		s.Require().NoError(err)
		_, err = s.svc.Decide(s.ctx, s.verifier, draft.ID, domain.StatusApproved, "ok")
		s.Require().NoError(err)

		log, err := s.svc.History(s.ctx, s.monitor, draft.ID)
		s.Require().NoError(err)
		s.Require().Len(log, 4)

		wantNew := []domain.Status{
			domain.StatusSubmitted,
			domain.StatusProcessing,
			domain.StatusPendingVerification,
			domain.StatusApproved,
		}
		for i, entry := range log {
			s.Equal(wantNew[i], entry.NewStatus)
		}
		s.Equal(domain.StatusDraft, log[0].PreviousStatus)
		s.Equal(s.verifier.ID, log[3].ActorID)
	})

	s.Run("visibility matches get", func() {
		draft := s.createDraft()
		other := Actor{ID: id.ActorID(uuid.New()), Role: id.RoleClerk}
		_, err := s.svc.History(s.ctx, other, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
