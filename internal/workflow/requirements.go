package workflow

// Document keys a graduate is expected to have on file while in a stage.
// Display only: advancing never checks completeness.
var requirements = map[string][]string{
	"identificacion_se": {"id"},
	"revision_se": {
		"e_firma", "beca", "impresion", "practicas", "ingles",
		"p_titulacion", "s_social", "licenciatura", "bachillerato", "curp", "acta",
	},
	"segunda_revision_se": {
		"e_firma", "beca", "impresion", "practicas", "ingles",
		"p_titulacion", "s_social", "licenciatura", "bachillerato", "curp", "acta",
	},
	"activar_linea_pago_se": {},
	"lineas_pago_se":        {"linea_1", "linea_2"},
}

// reviewStages board order
var reviewStages = []string{
	"identificacion_se",
	"revision_se",
	"segunda_revision_se",
	"activar_linea_pago_se",
	"lineas_pago_se",
}

// Requirements document keys for the stage; nil when the stage has no entry
func Requirements(stageName string) []string {
	keys, ok := requirements[stageName]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// HasRequirements reports whether the stage appears in the matrix, even with
// an empty key list
func HasRequirements(stageName string) bool {
	_, ok := requirements[stageName]
	return ok
}

// ReviewStages stage names that show up on the staff board, in order
func ReviewStages() []string {
	out := make([]string, len(reviewStages))
	copy(out, reviewStages)
	return out
}

// Missing required keys for the stage that are not in present
func Missing(stageName string, present map[string]bool) []string {
	var out []string
	for _, k := range requirements[stageName] {
		if !present[k] {
			out = append(out, k)
		}
	}
	return out
}
