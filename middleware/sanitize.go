package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxSanitizedBody = 1 << 20

var sqlInjectionPattern = regexp.MustCompile(`(?i)(` +
	`\bunion\s+(all\s+)?select\b` +
	`|\binsert\s+into\b` +
	`|\bdelete\s+from\b` +
	`|\bdrop\s+(table|database)\b` +
	`|\btruncate\s+table\b` +
	`|;\s*(select|update|delete|insert|drop)\b` +
	`|'\s*(or|and)\s+'?\w+'?\s*=\s*'?\w+` +
	`|/\*.*\*/` +
	`|\bxp_cmdshell\b` +
	`|\b(sleep|benchmark)\s*\(` +
	`)`)

func looksMalicious(s string) bool {
	return sqlInjectionPattern.MatchString(s)
}

func isSecretKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "password")
}

// cleanValue escapes every string inside v. found is set when one looks like SQL injection.
func cleanValue(v interface{}, found *bool) interface{} {
	switch val := v.(type) {
	case string:
		if looksMalicious(val) {
			*found = true
		}
		return html.EscapeString(val)
	case map[string]interface{}:
		for k, inner := range val {
			if isSecretKey(k) {
				continue
			}
			val[k] = cleanValue(inner, found)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = cleanValue(inner, found)
		}
		return val
	}
	return v
}

func rejectInput(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": "potentially malicious input detected",
	})
}

// Sanitize HTML-escapes query values, path params and JSON body strings and rejects
// input matching common SQL injection shapes. Password fields are left as sent.
// Bodies on skipBodyPaths and multipart bodies pass through untouched.
func Sanitize(skipBodyPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipBodyPaths))
	for _, p := range skipBodyPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				if looksMalicious(v) {
					rejectInput(c)
					return
				}
				values[i] = html.EscapeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		for i, p := range c.Params {
			if looksMalicious(p.Value) {
				rejectInput(c)
				return
			}
			c.Params[i].Value = html.EscapeString(p.Value)
		}

		if skip[c.Request.URL.Path] || c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
			c.Next()
			return
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSanitizedBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unreadable request body"})
			return
		}
		if len(raw) > maxSanitizedBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(bytes.TrimSpace(raw)) == 0 {
			c.Next()
			return
		}

		var body interface{}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil {
			// leave malformed JSON for the handler to reject
			c.Next()
			return
		}

		found := false
		body = cleanValue(body, &found)
		if found {
			rejectInput(c)
			return
		}

		cleaned, err := json.Marshal(body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(cleaned))
		c.Request.ContentLength = int64(len(cleaned))
		c.Next()
	}
}
