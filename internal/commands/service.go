// Package commands runs the transcript pipeline: interpret, normalize, gate,
// then execute against attendance records.
package commands

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ROLLCALL-backend/internal/attendance"
	"ROLLCALL-backend/internal/confirm"
	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/interpreter"
	"ROLLCALL-backend/internal/platform/apperr"
)

const msgNoRecords = "No records found for this query."

type Service struct {
	interp     interpreter.Interpreter
	exec       *attendance.Service
	issuer     *confirm.Issuer
	allowForce bool
	logger     *zap.Logger
}

func NewService(interp interpreter.Interpreter, exec *attendance.Service, issuer *confirm.Issuer, allowForce bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{interp: interp, exec: exec, issuer: issuer, allowForce: allowForce, logger: logger}
}

// Command interprets a spoken instruction. Destructive intents stop at the
// gate with a confirmation token unless force is set and allowed.
func (s *Service) Command(ctx context.Context, req CommandRequest) (Response, error) {
	in, err := s.interpret(ctx, req.Transcript, intent.TaskCommand)
	if err != nil {
		return Response{}, err
	}

	force := req.Force && s.allowForce
	if d := confirm.Decide(in, force); !d.Execute {
		ticket, err := s.issuer.Issue(ctx, in)
		if err != nil {
			return Response{}, apperr.ErrInternal("failed to issue confirmation").Wrap(err)
		}
		s.logger.Info("confirmation required", zap.String("kind", string(in.Kind)), zap.Stringer("filter", in.Filter()))
		exp := ticket.ExpiresAt
		return Response{
			Status:               http.StatusOK,
			ConfirmationRequired: true,
			ConfirmationToken:    ticket.Token,
			ExpiresAt:            &exp,
			Intent:               &in,
			Message:              d.Message,
		}, nil
	}
	return s.execute(ctx, in)
}

// Query answers a spoken question. Only QUERY intents come out of the query task.
func (s *Service) Query(ctx context.Context, req QueryRequest) (Response, error) {
	in, err := s.interpret(ctx, req.Transcript, intent.TaskQuery)
	if err != nil {
		return Response{}, err
	}
	return s.execute(ctx, in)
}

// Confirm executes the intent bound to a token issued by Command.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (Response, error) {
	in, err := s.issuer.Redeem(ctx, req.Token)
	if err != nil {
		return Response{}, err
	}
	s.logger.Info("confirmation redeemed", zap.String("kind", string(in.Kind)), zap.Stringer("filter", in.Filter()))
	return s.execute(ctx, in)
}

func (s *Service) interpret(ctx context.Context, transcript string, task intent.Task) (intent.Intent, error) {
	raw, err := s.interp.Interpret(ctx, transcript, task)
	if err != nil {
		return intent.Intent{}, err
	}
	in, err := intent.NormalizeJSON(raw, task)
	if err != nil {
		s.logger.Info("intent rejected", zap.String("task", string(task)), zap.Error(err))
		return intent.Intent{}, err
	}
	return in, nil
}

func (s *Service) execute(ctx context.Context, in intent.Intent) (Response, error) {
	if err := in.Check(); err != nil {
		return Response{}, apperr.ErrInternal("malformed intent").Wrap(err)
	}
	switch in.Kind {
	case intent.KindCreate:
		rec, err := s.exec.Create(ctx, *in.Create)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Status:  http.StatusCreated,
			Message: "Attendance recorded for class " + rec.ClassName,
			Data:    rec,
		}, nil

	case intent.KindUpdate:
		res, err := s.exec.Update(ctx, *in.Update)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Status: http.StatusOK,
			Message: fmt.Sprintf("Updated %d record(s) for %s (%d entries changed)",
				res.MatchedRecords, in.Update.Filter, res.ModifiedEntries),
			Data: res,
		}, nil

	case intent.KindDelete:
		rec, err := s.exec.Delete(ctx, in.Delete.Filter)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Status:  http.StatusOK,
			Message: fmt.Sprintf("Deleted the attendance record for class %s on %s", rec.ClassName, rec.Date.In(s.exec.Location()).Format(intent.DateLayout)),
			Data:    rec,
		}, nil

	case intent.KindQuery:
		res, err := s.exec.Query(ctx, *in.Query)
		if err != nil {
			return Response{}, err
		}
		if res.Matched == 0 {
			return Response{Status: http.StatusOK, Message: msgNoRecords}, nil
		}
		return Response{Status: http.StatusOK, Message: "Query successful", Data: res}, nil
	}
	return Response{}, apperr.ErrInternal(fmt.Sprintf("unhandled intent kind %q", in.Kind))
}
