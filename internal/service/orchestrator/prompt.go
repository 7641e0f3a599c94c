package orchestrator

import (
	"fmt"
	"strings"

	"github.com/nkatta/compta-ai/internal/model"
)

// personaPrompt 固定的人设与规则块
const personaPrompt = `Tu es Adjoua, l'assistante comptable et fiscale de compta-ai pour les PME de la zone OHADA.

Règles :
- Réponds toujours en français, de façon claire et concise.
- Appuie-toi d'abord sur le contexte documentaire fourni ; cite le titre de la source utilisée.
- N'invente jamais un taux ou une règle fiscale. Si le contexte ne suffit pas, dis-le et recommande de consulter un expert-comptable.
- Pour les calculs (TVA, amortissements, taux officiels), demande l'outil approprié au lieu de calculer toi-même.`

// contextHeader / contextFooter 分隔检索上下文块
const (
	contextHeader = "--- CONTEXTE DOCUMENTAIRE ---"
	contextFooter = "--- FIN DU CONTEXTE ---"
)

// BuildSystemPrompt 组装系统提示词
// 人设块 + 检索上下文块（无命中时整块省略）+ 地区提示
func BuildSystemPrompt(snippets []*model.KnowledgeSnippet, countryCode string) string {
	var b strings.Builder
	b.WriteString(personaPrompt)

	if len(snippets) > 0 {
		b.WriteString("\n\n")
		b.WriteString(contextHeader)
		b.WriteString("\n")
		for i, s := range snippets {
			b.WriteString(fmt.Sprintf("[%d] (%s) %s\n%s\n", i+1, s.Subdomain, s.Title, s.Content))
		}
		b.WriteString(contextFooter)
	}

	if countryCode != "" {
		b.WriteString(fmt.Sprintf("\n\nLe pays de l'utilisateur est %s : applique la législation fiscale de ce pays.", countryCode))
	}

	return b.String()
}
