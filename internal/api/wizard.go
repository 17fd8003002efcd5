package api

import (
	"io"
	"net/http"
	"strconv"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/wizard"

	"github.com/gin-gonic/gin"
)

type wizardHandler struct {
	engine *wizard.Engine
	log    logger.Logger
}

type wizardView struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Type        string                  `json:"type"`
	Scheduling  bool                    `json:"scheduling"`
	Steps       []wizard.StepDefinition `json:"steps"`
}

type sessionView struct {
	Session  *wizard.Session `json:"session"`
	Step     string          `json:"step"`
	Total    int             `json:"totalSteps"`
	Progress float64         `json:"progress"`
	Result   *wizard.Result  `json:"result,omitempty"`
	Warning  string          `json:"warning,omitempty"`
}

func (h *wizardHandler) view(s *wizard.Session, res *wizard.Result) sessionView {
	v := sessionView{Session: s, Result: res}
	def, err := h.engine.Definition(s.WizardID)
	if err != nil {
		return v
	}
	seq := def.Sequencer(*s)
	v.Total = seq.Total()
	v.Progress = seq.Percent()
	if step, ok := def.StepAt(s.CurrentStep); ok {
		v.Step = step.ID
		if validator, err := h.engine.Validator(def.ID); err == nil {
			v.Warning = validator.Warnings(s.Draft, step.ID)
		}
	}
	return v
}

func (h *wizardHandler) catalog(c *gin.Context) {
	defs := h.engine.Definitions()
	out := make([]wizardView, 0, len(defs))
	for _, def := range defs {
		out = append(out, wizardView{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Type:        def.Submission.Type,
			Scheduling:  def.Scheduling,
			Steps:       def.Steps,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "wizards": out})
}

func (h *wizardHandler) history(c *gin.Context) {
	apps, err := h.engine.History(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "applications": apps})
}

func (h *wizardHandler) resume(c *gin.Context) {
	s, err := h.engine.Resume(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}

	var res *wizard.Result
	if def, err := h.engine.Definition(s.WizardID); err == nil {
		if step, ok := def.StepAt(s.CurrentStep); ok {
			v, _ := h.engine.Validator(def.ID)
			r := v.Validate(s.Draft, step.ID)
			res = &r
		}
	}
	c.JSON(http.StatusOK, h.view(s, res))
}

func (h *wizardHandler) update(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "request body must be a JSON object")
		return
	}

	s, res, err := h.engine.Update(c.Request.Context(), c.Param("wizard"), c.Param("user"), c.Param("step"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s, &res))
}

func (h *wizardHandler) next(c *gin.Context) {
	before, err := h.engine.Resume(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}

	s, res, err := h.engine.Next(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"advanced": s.CurrentStep != before.CurrentStep,
		"state":    h.view(s, &res),
	})
}

func (h *wizardHandler) back(c *gin.Context) {
	s, exit, err := h.engine.Back(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exit": exit, "state": h.view(s, nil)})
}

func (h *wizardHandler) goTo(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		badRequest(c, "step must be a number")
		return
	}

	s, moved, err := h.engine.GoTo(c.Request.Context(), c.Param("wizard"), c.Param("user"), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved, "state": h.view(s, nil)})
}

func (h *wizardHandler) reset(c *gin.Context) {
	s, err := h.engine.Reset(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s, nil))
}

func (h *wizardHandler) submit(c *gin.Context) {
	record, err := h.engine.Submit(c.Request.Context(), c.Param("wizard"), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reference": record.Reference, "record": record})
}

// schedule relays a raw widget message to the session's listeners.
func (h *wizardHandler) schedule(c *gin.Context) {
	ctx := c.Request.Context()
	wizardID, user := c.Param("wizard"), c.Param("user")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	ev, ok := wizard.ParseWidgetMessage(raw)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	s, n, err := h.engine.Relay(ctx, wizardID, user, ev)
	if err != nil {
		respondError(c, err)
		return
	}
	if n == 0 {
		badRequest(c, "wizard does not take appointments")
		return
	}

	h.log.Info("scheduling event relayed", map[string]interface{}{"wizard": wizardID, "user": user, "listeners": n})
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.view(s, nil)})
}
