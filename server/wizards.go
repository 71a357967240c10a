package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	sb "github.com/cordialsys/stakeboard"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/labstack/echo/v4"
)

type CreateWizardRequest struct {
	Flow     string     `json:"flow"`
	Amount   string     `json:"amount,omitempty"`
	Guardian sb.Address `json:"guardian,omitempty"`
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type GuardianRequest struct {
	Guardian sb.Address `json:"guardian"`
}

func (s *Server) wizardOptions() wizard.Options {
	return wizard.Options{
		Threshold: uint64(s.chain.Confirmations.Threshold),
		Decimals:  s.chain.Decimals,
		Now:       s.now,
		OnChange:  s.onWizardChange,
	}
}

// onWizardChange may run on a listener goroutine.
func (s *Server) onWizardChange(id string, state wizard.State) {
	if !state.Terminal() || s.sdClient == nil {
		return
	}
	tags := []string{"flow:" + string(state.Flow)}
	if state.Err != nil {
		tags = append(tags, "status:"+string(xcerrors.StatusOf(state.Err)))
	}
	_ = s.sdClient.Incr("wizard."+string(state.Step), tags, 1)
}

func (s *Server) lookup(id string) (*wizard.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.wizards[id]
	return c, ok
}

func (s *Server) wizardOr404(c echo.Context) (*wizard.Controller, error) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		return nil, c.JSON(http.StatusNotFound, errorView{Message: "wizard not found"})
	}
	return ctrl, nil
}

// open registers a new controller. An open, unfinished wizard of the same flow
// blocks a second one; a finished one is replaced.
func (s *Server) open(ctx context.Context, flow wizard.Flow) (*wizard.Controller, *wizard.Controller, error) {
	s.opening.Lock()
	defer s.opening.Unlock()

	s.mu.Lock()
	var replaced *wizard.Controller
	for id, existing := range s.wizards {
		if existing.Flow() != flow {
			continue
		}
		if !existing.State().Terminal() {
			s.mu.Unlock()
			return nil, existing, nil
		}
		replaced = existing
		delete(s.wizards, id)
	}
	s.mu.Unlock()
	if replaced != nil {
		replaced.Close()
	}

	ctrl, err := wizard.Open(ctx, flow, s.store, s.wizardOptions())
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	s.wizards[ctrl.ID()] = ctrl
	s.mu.Unlock()
	s.log.WithField("wizard", ctrl.ID()).WithField("flow", flow).Info("opened wizard")
	return ctrl, nil, nil
}

func (s *Server) ListWizards(c echo.Context) error {
	ctrls := s.controllers()
	views := make([]WizardView, 0, len(ctrls))
	for _, ctrl := range ctrls {
		views = append(views, NewWizardView(ctrl, s.chain))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Flow < views[j].Flow })
	return c.JSON(http.StatusOK, views)
}

func (s *Server) CreateWizard(c echo.Context) error {
	var req CreateWizardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorView{Message: fmt.Sprintf("fail to parse request, err: %v", err)})
	}
	flow, err := wizard.ParseFlow(req.Flow)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorView{Message: err.Error()})
	}
	ctx := c.Request().Context()

	if flow == wizard.FlowGuardianChange {
		snap, err := s.store.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("fail to read account, err: %w", err)
		}
		if req.Guardian != "" && snap.IsSelected(req.Guardian) {
			return c.JSON(http.StatusConflict, errorView{
				ID:      GuardianAlreadySelectedID,
				Message: "This guardian is already selected",
			})
		}
	}

	ctrl, existing, err := s.open(ctx, flow)
	if err != nil {
		return fmt.Errorf("fail to open wizard, err: %w", err)
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, errorView{
			ID:      existing.ID(),
			Message: fmt.Sprintf("a %s wizard is already open", flow),
		})
	}

	if req.Amount != "" || req.Guardian != "" {
		if _, err := ctrl.SetInput(ctx, wizard.Input{Amount: req.Amount, Guardian: normalizeGuardian(req.Guardian)}); err != nil && !isValidationErr(err) {
			return fmt.Errorf("fail to set wizard input, err: %w", err)
		}
	}
	return c.JSON(http.StatusCreated, NewWizardView(ctrl, s.chain))
}

func normalizeGuardian(guardian sb.Address) sb.Address {
	if guardian == "" {
		return ""
	}
	return sb.NormalizeAddress(string(guardian))
}

func isValidationErr(err error) bool {
	return xcerrors.Is(err, xcerrors.UserInputInvalid)
}

func (s *Server) GetWizard(c echo.Context) error {
	ctrl, err := s.wizardOr404(c)
	if ctrl == nil {
		return err
	}
	return c.JSON(http.StatusOK, NewWizardView(ctrl, s.chain))
}

func (s *Server) SetWizardAmount(c echo.Context) error {
	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorView{Message: fmt.Sprintf("fail to parse request, err: %v", err)})
	}
	return s.setInput(c, func(ctx context.Context, ctrl *wizard.Controller) error {
		_, err := ctrl.SetAmount(ctx, req.Amount)
		return err
	})
}

func (s *Server) SetWizardGuardian(c echo.Context) error {
	var req GuardianRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorView{Message: fmt.Sprintf("fail to parse request, err: %v", err)})
	}
	return s.setInput(c, func(ctx context.Context, ctrl *wizard.Controller) error {
		_, err := ctrl.SetGuardian(ctx, req.Guardian)
		return err
	})
}

// setInput answers with the wizard view; validation failures are part of the view.
func (s *Server) setInput(c echo.Context, set func(ctx context.Context, ctrl *wizard.Controller) error) error {
	ctrl, err := s.wizardOr404(c)
	if ctrl == nil {
		return err
	}
	if err := set(c.Request().Context(), ctrl); err != nil && !isValidationErr(err) {
		return s.wizardError(c, ctrl, err)
	}
	return c.JSON(http.StatusOK, NewWizardView(ctrl, s.chain))
}

// SubmitWizard sends the transaction. Failures of the transaction itself are
// reported in the wizard view.
func (s *Server) SubmitWizard(c echo.Context) error {
	ctrl, err := s.wizardOr404(c)
	if ctrl == nil {
		return err
	}
	if _, err := ctrl.Submit(c.Request().Context()); err != nil {
		if ctrl.State().Step == wizard.StepFailed && !errors.Is(err, wizard.ErrTerminal) {
			return c.JSON(http.StatusOK, NewWizardView(ctrl, s.chain))
		}
		return s.wizardError(c, ctrl, err)
	}
	return c.JSON(http.StatusAccepted, NewWizardView(ctrl, s.chain))
}

func (s *Server) wizardError(c echo.Context, ctrl *wizard.Controller, err error) error {
	switch {
	case errors.Is(err, wizard.ErrClosed):
		return c.JSON(http.StatusNotFound, errorView{Message: err.Error()})
	case errors.Is(err, wizard.ErrInputNotReady):
		return c.JSON(http.StatusBadRequest, errorView{ID: ctrl.ID(), Message: err.Error()})
	case errors.Is(err, wizard.ErrTerminal), errors.Is(err, wizard.ErrUnexpected):
		return c.JSON(http.StatusConflict, errorView{ID: ctrl.ID(), Message: err.Error()})
	}
	return fmt.Errorf("wizard %s, err: %w", ctrl.ID(), err)
}

// CloseWizard discards the wizard. A transaction already sent is not affected.
func (s *Server) CloseWizard(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	ctrl, ok := s.wizards[id]
	delete(s.wizards, id)
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound, errorView{Message: "wizard not found"})
	}
	ctrl.Close()
	s.log.WithField("wizard", id).Info("closed wizard")
	return c.NoContent(http.StatusNoContent)
}

// Disconnect fails every open wizard, e.g. after the chain connection was lost.
func (s *Server) Disconnect() {
	for _, ctrl := range s.controllers() {
		ctrl.Disconnect()
	}
}

// CloseAll closes and forgets every wizard.
func (s *Server) CloseAll() {
	s.mu.Lock()
	ctrls := make([]*wizard.Controller, 0, len(s.wizards))
	for id, ctrl := range s.wizards {
		ctrls = append(ctrls, ctrl)
		delete(s.wizards, id)
	}
	s.mu.Unlock()
	for _, ctrl := range ctrls {
		ctrl.Close()
	}
}

func (s *Server) controllers() []*wizard.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrls := make([]*wizard.Controller, 0, len(s.wizards))
	for _, ctrl := range s.wizards {
		ctrls = append(ctrls, ctrl)
	}
	return ctrls
}
