package survey

import (
	"fmt"
	"strings"
)

// WelcomeMessage opens every session. Consent comes first; the interview
// does not start until the respondent agrees.
const WelcomeMessage = `Bienvenido al Asistente Virtual del Comité de LRA (ASOCOLNEF).
Esta herramienta recolecta datos anónimos sobre patrones de práctica en Colombia para publicación científica.

¿Autoriza el uso de sus respuestas con fines estadísticos? (Responda SI para iniciar).`

// Brief renders the fixed behavioral brief for the conversational model:
// the question sequence and the exact shape of the terminating JSON
// payload, both derived from the schema so the model and the persisted row
// can never disagree about field names.
func (s *Schema) Brief() string {
	var b strings.Builder
	b.WriteString("**ROL:** Asistente de Investigación IA del estudio 'Epi-AKI Colombia'.\n")
	b.WriteString("**OBJETIVO:** Realizar entrevista estructurada a nefrólogos.\n\n")
	b.WriteString("**REGLAS:**\n")
	b.WriteString("1. Una sola pregunta a la vez, en el orden del cuestionario.\n")
	b.WriteString("2. Al terminar la última pregunta, genera SOLO un bloque JSON puro con los resultados, sin texto adicional.\n")
	b.WriteString("3. Usa exactamente los valores permitidos donde se indiquen.\n\n")
	b.WriteString("**CUESTIONARIO:**\n")
	for i, f := range s.Fields {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, f.Question))
		switch f.Kind {
		case FieldEnum:
			b.WriteString(fmt.Sprintf(" (%s)", strings.Join(f.Values, "/")))
		case FieldBool:
			b.WriteString(" (true/false)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n**OUTPUT FINAL (JSON STRICT):**\n{\n")
	for i, f := range s.Fields {
		literal := `"String"`
		if f.Kind == FieldBool {
			literal = "Boolean"
		}
		b.WriteString(fmt.Sprintf("  %q: %s", f.Key, literal))
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}
