package translate

import (
	"regexp"

	"github.com/ShayCichocki/parley/pkg/models"
)

// typeWords detects the command surface. Entries are checked in order and
// words are matched as substrings of the lowercased text.
var typeWords = []struct {
	Type  models.CommandType
	Words []string
}{
	{models.CommandAgent, []string{"agent", "ajan", "monitor", "izle"}},
	{models.CommandDB, []string{"veritabani", "database", "sorgu", "query", "tablo", "table", "kayit", "record"}},
	{models.CommandShell, []string{"terminal", "shell", "komut", "calistir", "run", "deploy", "restart"}},
	{models.CommandAPI, []string{"api", "endpoint", "istek", "request", "gonder", "send"}},
}

// agentTypes maps keywords to agent kinds, checked in order.
var agentTypes = []struct {
	Keyword string
	Agent   string
}{
	{"sunucu", "server_monitor"},
	{"server", "server_monitor"},
	{"guvenlik", "security"},
	{"security", "security"},
	{"arastirma", "research"},
	{"research", "research"},
	{"analiz", "analysis"},
	{"analysis", "analysis"},
	{"email", "communication"},
	{"eposta", "communication"},
	{"kod", "coding"},
	{"code", "coding"},
	{"reklam", "marketing"},
	{"marketing", "marketing"},
	{"icerik", "creative"},
	{"creative", "creative"},
	{"ses", "voice"},
	{"voice", "voice"},
}

// queryVerbs picks the SQL statement shape, checked in order.
var queryVerbs = []struct {
	Statement string
	Words     []string
}{
	{"SELECT", []string{"goster", "listele", "getir", "show", "list", "get"}},
	{"INSERT", []string{"ekle", "olustur", "create", "add", "insert"}},
	{"DELETE", []string{"sil", "kaldir", "delete", "remove"}},
	{"UPDATE", []string{"guncelle", "degistir", "update", "modify"}},
}

// shellActions maps keywords to service-manager commands. %s is the
// service name.
var shellActions = []struct {
	Words   []string
	Command string
}{
	{[]string{"restart", "yeniden baslat"}, "systemctl restart %s"},
	{[]string{"durum", "status"}, "systemctl status %s"},
	{[]string{"log", "gunluk"}, "journalctl -u %s --no-pager -n 50"},
	{[]string{"deploy", "yayinla"}, "docker-compose up -d --build"},
}

// apiMethods maps intent categories to HTTP methods. Others use GET.
var apiMethods = map[models.IntentCategory]string{
	models.CategoryCreate: "POST",
	models.CategoryQuery:  "GET",
	models.CategoryModify: "PUT",
	models.CategoryDelete: "DELETE",
}

// resourceStopwords are skipped when picking an API resource name.
var resourceStopwords = map[string]bool{
	"olustur": true, "goster": true, "sil": true, "guncelle": true,
	"getir": true, "listele": true, "api": true, "endpoint": true,
}

type safetyRule struct {
	re    *regexp.Regexp
	level models.SafetyLevel
}

// safetyRules are checked in order; the first match decides the level.
var safetyRules = compileRules([]struct {
	level    models.SafetyLevel
	patterns []string
}{
	{models.SafetyBlocked, []string{
		`\brm\s+-rf\s+/(?:\s|$)`,
		`:\(\)\s*\{\s*:\|:&\s*\};:`,
		`\bmkfs\b`,
		`\bdd\s+if=.*\bof=/dev/`,
	}},
	{models.SafetyDangerous, []string{
		`\brm\s+-rf\b`,
		`\bdrop\s+database\b`,
		`\bdrop\s+table\b`,
		`\bdelete\s+from\s+\w+\s*$`,
		`\bformat\b`,
		`\bshutdown\b`,
		`\breboot\b`,
		`\bkill\s+-9\b`,
		`\btruncate\b`,
	}},
	{models.SafetyCaution, []string{
		`\bdelete\b`,
		`\bremove\b`,
		`\bstop\b`,
		`\brestart\b`,
		`\bupdate\b.*\bwhere\b`,
		`\balter\b`,
		`\bdeploy\b`,
		`\bpush\b`,
	}},
})

func compileRules(groups []struct {
	level    models.SafetyLevel
	patterns []string
}) []safetyRule {
	var rules []safetyRule
	for _, g := range groups {
		for _, p := range g.patterns {
			rules = append(rules, safetyRule{re: regexp.MustCompile(p), level: g.level})
		}
	}
	return rules
}
