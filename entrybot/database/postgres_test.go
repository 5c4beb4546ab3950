package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	t.Setenv("PG_SSLMODE", "")
	dsn := buildDSN(DBConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "entry",
		Password: "p@ss:word",
		Database: "visits",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/visits", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss:word", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	t.Setenv("PG_SSLMODE", "require")
	u, err = url.Parse(buildDSN(DBConfig{Host: "h", Port: 1}))
	require.NoError(t, err)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}
