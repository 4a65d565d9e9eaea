package store

// WriteAudit persists one audit record. Called asynchronously from the audit
// middleware, so it deliberately takes no request context.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `
		INSERT INTO audit_log (user_id, action, resource, resource_id, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(query, userID, action, resource, resourceID, details, ip, userAgent)
	return err
}
