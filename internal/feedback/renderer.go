// Package feedback renders user-facing messages: error explanations,
// success confirmations, progress reports, clarification requests and
// suggestions. Messages are in Turkish and honour a verbosity level.
package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// Error kinds understood by ExplainError.
const (
	KindNotFound   = "not_found"
	KindPermission = "permission"
	KindTimeout    = "timeout"
	KindValidation = "validation"
	KindGeneric    = "generic"
)

type errorTemplate struct {
	content     string
	suggestions []string
}

var errorTemplates = map[string]errorTemplate{
	KindNotFound: {
		content:     "%s bulunamadi.",
		suggestions: []string{"Adi kontrol edin", "Mevcut kayitlari listeleyin"},
	},
	KindPermission: {
		content:     "Bu islem icin yetkiniz yok: %s.",
		suggestions: []string{"Yetkilerinizi kontrol edin", "Yoneticiyle iletisime gecin"},
	},
	KindTimeout: {
		content:     "Islem zaman asimi nedeniyle tamamlanamadi: %s.",
		suggestions: []string{"Tekrar deneyin", "Islemi daha kucuk parcalara bolun"},
	},
	KindValidation: {
		content:     "Girdi gecersiz: %s.",
		suggestions: []string{"Girdiyi duzeltip tekrar deneyin"},
	},
	KindGeneric: {
		content:     "Bir hata olustu: %s.",
		suggestions: []string{"Istegi farkli sekilde ifade edin"},
	},
}

// successVerbs maps actions to the past-tense verb used in confirmations.
var successVerbs = map[string]string{
	"created": "olusturuldu", "create": "olusturuldu", "olustur": "olusturuldu",
	"deleted": "silindi", "delete": "silindi", "sil": "silindi",
	"updated": "guncellendi", "update": "guncellendi", "modify": "guncellendi", "guncelle": "guncellendi",
	"configure": "yapilandirildi", "yapilandir": "yapilandirildi",
	"execute": "calistirildi", "run": "calistirildi", "calistir": "calistirildi",
}

// ErrorReport is a detailed error for ExplainReport.
type ErrorReport struct {
	Kind        string
	Entity      string
	Detail      string
	Suggestions []string
}

// Renderer builds feedback messages and keeps every message it produced.
type Renderer struct {
	verbosity models.Verbosity
	logger    *zap.Logger
	now       func() time.Time

	messages map[string]*models.FeedbackMessage
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithVerbosity sets the initial verbosity. Invalid values are ignored.
func WithVerbosity(v models.Verbosity) Option {
	return func(r *Renderer) {
		if v.Valid() {
			r.verbosity = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Renderer at normal verbosity.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		verbosity: models.VerbosityNormal,
		logger:    zap.NewNop(),
		now:       time.Now,
		messages:  make(map[string]*models.FeedbackMessage),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Verbosity returns the current verbosity.
func (r *Renderer) Verbosity() models.Verbosity {
	return r.verbosity
}

// SetVerbosity changes the verbosity. It returns false and leaves the
// level unchanged when v is not a known value.
func (r *Renderer) SetVerbosity(v models.Verbosity) bool {
	if !v.Valid() {
		return false
	}
	r.verbosity = v
	return true
}

// ExplainError explains an error of the given kind. Unknown kinds are
// treated as generic.
func (r *Renderer) ExplainError(kind, detail string) *models.FeedbackMessage {
	return r.ExplainReport(ErrorReport{Kind: kind, Detail: detail})
}

// ExplainReport explains an error about an entity. Suggestions on the
// report replace the defaults for its kind.
func (r *Renderer) ExplainReport(rep ErrorReport) *models.FeedbackMessage {
	tmpl, ok := errorTemplates[rep.Kind]
	if !ok {
		tmpl = errorTemplates[KindGeneric]
	}
	subject := rep.Entity
	if subject == "" {
		subject = rep.Detail
	}
	if subject == "" {
		subject = "istenen kaynak"
	}

	suggestions := rep.Suggestions
	if len(suggestions) == 0 {
		suggestions = tmpl.suggestions
	}
	msg := r.newMessage(models.FeedbackErrorExplanation, fmt.Sprintf(tmpl.content, subject), suggestions)
	if r.verbosity.ShowsDetail() && rep.Detail != "" {
		msg.TechnicalDetail = fmt.Sprintf("kind=%s detail=%s", rep.Kind, rep.Detail)
	}
	return r.store(msg)
}

// ConfirmSuccess confirms a completed action on an entity.
func (r *Renderer) ConfirmSuccess(action, entity, detail string) *models.FeedbackMessage {
	var content string
	if verb, ok := successVerbs[strings.ToLower(action)]; ok {
		subject := entity
		if subject == "" {
			subject = "Islem"
		}
		content = fmt.Sprintf("%s %s.", subject, verb)
	} else {
		if action == "" {
			action = "istek"
		}
		if entity != "" {
			content = fmt.Sprintf("%s icin %s islemi tamamlandi.", entity, action)
		} else {
			content = fmt.Sprintf("%s islemi tamamlandi.", action)
		}
	}

	msg := r.newMessage(models.FeedbackSuccessConfirmation, content, nil)
	if r.verbosity.ShowsDetail() {
		msg.TechnicalDetail = detail
	}
	return r.store(msg)
}

// ReportProgress reports done out of total steps under a label.
func (r *Renderer) ReportProgress(done, total int, label string) *models.FeedbackMessage {
	pct := 0
	if total > 0 {
		pct = done * 100 / total
	}
	pct = max(0, min(pct, 100))
	if label == "" {
		label = "Ilerleme"
	}
	msg := r.newMessage(models.FeedbackProgressReport,
		fmt.Sprintf("%s: %%%d (%d/%d)", label, pct, done, total), nil)
	return r.store(msg)
}

// RequestClarification asks the user a question. Options are appended to
// the content and returned as suggestions at every verbosity.
func (r *Renderer) RequestClarification(question string, options []string) *models.FeedbackMessage {
	content := question
	if len(options) > 0 {
		content = question + " Secenekler: " + strings.Join(options, ", ")
	}
	msg := r.newMessage(models.FeedbackClarificationRequest, content, nil)
	msg.Suggestions = append([]string(nil), options...)
	return r.store(msg)
}

// Suggest proposes a next step.
func (r *Renderer) Suggest(text, reason string) *models.FeedbackMessage {
	content := "Oneri: " + text
	if reason != "" {
		content += " (" + reason + ")"
	}
	return r.store(r.newMessage(models.FeedbackSuggestion, content, []string{text}))
}

// Message returns a previously rendered message.
func (r *Renderer) Message(id string) (*models.FeedbackMessage, bool) {
	m, ok := r.messages[id]
	return m, ok
}

// MessageCount returns how many messages have been rendered.
func (r *Renderer) MessageCount() int {
	return len(r.messages)
}

func (r *Renderer) newMessage(typ models.FeedbackType, content string, suggestions []string) *models.FeedbackMessage {
	msg := &models.FeedbackMessage{
		ID:        uuid.NewString(),
		Type:      typ,
		Content:   content,
		Verbosity: r.verbosity,
		CreatedAt: r.now(),
	}
	if r.verbosity != models.VerbosityMinimal {
		msg.Suggestions = append([]string(nil), suggestions...)
	}
	return msg
}

func (r *Renderer) store(msg *models.FeedbackMessage) *models.FeedbackMessage {
	r.messages[msg.ID] = msg
	r.logger.Debug("rendered feedback",
		zap.String("type", string(msg.Type)),
		zap.String("verbosity", string(msg.Verbosity)))
	return msg
}
