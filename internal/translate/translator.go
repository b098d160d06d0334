// Package translate renders utterances as agent commands, API calls,
// database queries or shell commands and rates how risky each one is.
// Nothing here executes the commands it produces.
package translate

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrEmptyText is returned when there is nothing to translate.
var ErrEmptyText = errors.New("nothing to translate")

// Translator converts text into commands and keeps every translation.
type Translator struct {
	confirm bool
	service string
	logger  *zap.Logger
	now     func() time.Time

	translations map[string]*models.TranslatedCommand
}

// Option configures a Translator.
type Option func(*Translator)

// WithConfirmation controls whether risky commands require confirmation.
// Blocked commands always do.
func WithConfirmation(on bool) Option {
	return func(t *Translator) { t.confirm = on }
}

// WithService sets the service name used in shell commands.
func WithService(name string) Option {
	return func(t *Translator) {
		if name != "" {
			t.service = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Translator that asks for confirmation by default.
func New(opts ...Option) *Translator {
	t := &Translator{
		confirm:      true,
		service:      "app",
		logger:       zap.NewNop(),
		now:          time.Now,
		translations: make(map[string]*models.TranslatedCommand),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate detects the command type and builds the matching command. The
// intent is optional and refines the action, HTTP method and fallback type.
func (t *Translator) Translate(text string, in *models.Intent) (*models.TranslatedCommand, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	typ := detectType(text, in)
	var cmd *models.TranslatedCommand
	switch typ {
	case models.CommandAgent:
		cmd = t.agentCommand(text, in)
	case models.CommandDB:
		cmd = t.queryCommand(text)
	case models.CommandShell:
		cmd = t.shellCommand(text)
	case models.CommandAPI:
		cmd = t.apiCommand(text, in)
	default:
		action := extractAction(text, in)
		cmd = t.newCommand(text, models.CommandSystem, "system:"+action, map[string]any{"action": action})
	}
	t.rate(cmd)
	return t.store(cmd), nil
}

// ToAgent builds an agent command of the form agent:<kind>:<action>.
func (t *Translator) ToAgent(text string, in *models.Intent) *models.TranslatedCommand {
	cmd := t.agentCommand(text, in)
	t.rate(cmd)
	return t.store(cmd)
}

// ToAPI builds an HTTP call against /api/<resource>.
func (t *Translator) ToAPI(text string, in *models.Intent) *models.TranslatedCommand {
	cmd := t.apiCommand(text, in)
	t.rate(cmd)
	return t.store(cmd)
}

// ToQuery builds a SQL-like query.
func (t *Translator) ToQuery(text string) *models.TranslatedCommand {
	cmd := t.queryCommand(text)
	t.rate(cmd)
	return t.store(cmd)
}

// ToShell builds a shell command.
func (t *Translator) ToShell(text string) *models.TranslatedCommand {
	cmd := t.shellCommand(text)
	t.rate(cmd)
	return t.store(cmd)
}

// Translation returns a previous translation.
func (t *Translator) Translation(id string) (*models.TranslatedCommand, bool) {
	cmd, ok := t.translations[id]
	return cmd, ok
}

// Count returns how many translations have been made.
func (t *Translator) Count() int {
	return len(t.translations)
}

func (t *Translator) newCommand(text string, typ models.CommandType, command string, params map[string]any) *models.TranslatedCommand {
	return &models.TranslatedCommand{
		ID:           uuid.NewString(),
		OriginalText: text,
		Type:         typ,
		Command:      command,
		Parameters:   params,
		CreatedAt:    t.now(),
	}
}

func (t *Translator) store(cmd *models.TranslatedCommand) *models.TranslatedCommand {
	t.translations[cmd.ID] = cmd
	t.logger.Debug("translated command",
		zap.String("type", string(cmd.Type)),
		zap.String("safety", string(cmd.SafetyLevel)),
		zap.Bool("confirm", cmd.RequiresConfirmation))
	return cmd
}

func (t *Translator) agentCommand(text string, in *models.Intent) *models.TranslatedCommand {
	agent := agentType(text)
	action := extractAction(text, in)
	target := agent
	if target == "" {
		target = "master"
	}
	return t.newCommand(text, models.CommandAgent,
		fmt.Sprintf("agent:%s:%s", target, action),
		map[string]any{"agent_type": agent, "action": action})
}

func (t *Translator) apiCommand(text string, in *models.Intent) *models.TranslatedCommand {
	method := "GET"
	if in != nil {
		if m, ok := apiMethods[in.Category]; ok {
			method = m
		}
	}
	path := "/api/" + apiResource(text)
	return t.newCommand(text, models.CommandAPI, method+" "+path,
		map[string]any{"method": method, "path": path})
}

func (t *Translator) queryCommand(text string) *models.TranslatedCommand {
	query := buildQuery(text)
	return t.newCommand(text, models.CommandDB, query, map[string]any{"query": query})
}

func (t *Translator) shellCommand(text string) *models.TranslatedCommand {
	shell := t.buildShell(text)
	return t.newCommand(text, models.CommandShell, shell, map[string]any{"shell": shell})
}

// rate sets the safety level from the generated command and the original
// text, keeping the more severe of the two.
func (t *Translator) rate(cmd *models.TranslatedCommand) {
	level, reason := Assess(cmd.Command)
	if l, r := Assess(cmd.OriginalText); severity(l) > severity(level) {
		level, reason = l, r
	}
	if cmd.Type == models.CommandAPI && level == models.SafetySafe {
		if m, _ := cmd.Parameters["method"].(string); m == "DELETE" || m == "PUT" || m == "PATCH" {
			level, reason = models.SafetyCaution, "state-changing HTTP method "+m
		}
	}
	cmd.SafetyLevel = level
	cmd.SafetyReason = reason
	cmd.RequiresConfirmation = level == models.SafetyBlocked ||
		(t.confirm && level != models.SafetySafe)
}

// Assess rates a command string against the safety rules.
func Assess(command string) (models.SafetyLevel, string) {
	lower := strings.ToLower(command)
	for _, r := range safetyRules {
		if r.re.MatchString(lower) {
			return r.level, fmt.Sprintf("%s pattern %s", r.level, r.re)
		}
	}
	return models.SafetySafe, ""
}

func severity(l models.SafetyLevel) int {
	switch l {
	case models.SafetyBlocked:
		return 3
	case models.SafetyDangerous:
		return 2
	case models.SafetyCaution:
		return 1
	default:
		return 0
	}
}

func detectType(text string, in *models.Intent) models.CommandType {
	lower := strings.ToLower(text)
	for _, tw := range typeWords {
		for _, w := range tw.Words {
			if strings.Contains(lower, w) {
				return tw.Type
			}
		}
	}
	if in != nil && in.Category == models.CategoryQuery {
		return models.CommandDB
	}
	return models.CommandSystem
}

func agentType(text string) string {
	lower := strings.ToLower(text)
	for _, at := range agentTypes {
		if strings.Contains(lower, at.Keyword) {
			return at.Agent
		}
	}
	return ""
}

func extractAction(text string, in *models.Intent) string {
	if in != nil && in.Action != "" {
		return in.Action
	}
	if words := strings.Fields(strings.ToLower(text)); len(words) > 0 {
		return words[0]
	}
	return "execute"
}

func apiResource(text string) string {
	for _, w := range strings.Fields(text) {
		lower := strings.ToLower(strings.Trim(w, ".,;:!?\""))
		if i := strings.IndexByte(lower, '\''); i >= 0 {
			lower = lower[:i]
		}
		if utf8.RuneCountInString(lower) > 3 && !resourceStopwords[lower] {
			return lower
		}
	}
	return "resource"
}

func buildQuery(text string) string {
	lower := strings.ToLower(text)
	statement := ""
	for _, qv := range queryVerbs {
		for _, w := range qv.Words {
			if strings.Contains(lower, w) {
				statement = qv.Statement
				break
			}
		}
		if statement != "" {
			break
		}
	}

	switch statement {
	case "SELECT":
		return fmt.Sprintf("SELECT * FROM data WHERE context = '%s'", quote(text, 30))
	case "INSERT":
		return fmt.Sprintf("INSERT INTO data (description) VALUES ('%s')", quote(text, 30))
	case "DELETE":
		return fmt.Sprintf("DELETE FROM data WHERE description LIKE '%%%s%%'", quote(text, 20))
	case "UPDATE":
		return fmt.Sprintf("UPDATE data SET description = '%s'", quote(text, 30))
	default:
		return fmt.Sprintf("SELECT * FROM data WHERE description LIKE '%%%s%%'", quote(text, 20))
	}
}

func (t *Translator) buildShell(text string) string {
	lower := strings.ToLower(text)
	for _, sa := range shellActions {
		for _, w := range sa.Words {
			if strings.Contains(lower, w) {
				if strings.Contains(sa.Command, "%s") {
					return fmt.Sprintf(sa.Command, t.service)
				}
				return sa.Command
			}
		}
	}
	return fmt.Sprintf("echo '%s'", quote(text, 40))
}

// quote truncates s to n runes and escapes single quotes.
func quote(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		s = string([]rune(s)[:n])
	}
	return strings.ReplaceAll(s, "'", "''")
}
