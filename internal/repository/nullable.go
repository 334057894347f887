package repository

// nullableText convierte "" en NULL para columnas opcionales.
func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func derefText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
