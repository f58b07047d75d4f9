package sheets

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const dataSourcePath = "/gviz/tq"

var (
	editSuffix = regexp.MustCompile(`/(edit|view|htmlview|pubhtml)[^/]*$`)
	gidParam   = regexp.MustCompile(`gid=(\d+)`)
)

// GetURL returns the data source URL of the sheet at sheetURL. The sheet is
// selected by the gid found in the URL fragment or query string, or by a sheet
// query parameter; it defaults to gid 0. A headers query parameter in sheetURL
// overrides headers.
func GetURL(sheetURL string, headers int) (string, error) {
	u, err := url.Parse(sheetURL)
	if err != nil {
		return "", fmt.Errorf("invalid sheet URL %q: %w", sheetURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid sheet URL %q: scheme and host are required", sheetURL)
	}

	params := u.Query()
	gid := "0"
	if m := gidParam.FindStringSubmatch(u.Fragment); m != nil {
		gid = m[1]
	} else if v := params.Get("gid"); v != "" {
		gid = v
	}
	if v := params.Get("headers"); v != "" {
		if headers, err = strconv.Atoi(v); err != nil {
			return "", fmt.Errorf("invalid headers in sheet URL %q: %w", sheetURL, err)
		}
	}

	path := strings.TrimSuffix(editSuffix.ReplaceAllString(u.Path, ""), "/")
	path = strings.TrimSuffix(path, dataSourcePath)

	out := url.Values{}
	if headers > 0 {
		out.Set("headers", strconv.Itoa(headers))
	}
	if sheet := params.Get("sheet"); sheet != "" {
		out.Set("sheet", sheet)
	} else {
		out.Set("gid", gid)
	}
	return fmt.Sprintf("%s://%s%s%s?%s", u.Scheme, u.Host, path, dataSourcePath, out.Encode()), nil
}

// queryURL appends the query to a data source URL.
func queryURL(sourceURL string, query string) string {
	return sourceURL + "&tq=" + quote(query)
}

// quote percent-encodes s like a URL path segment but keeps '/', '(' and ')'
// readable, so queries show up legibly in the data source logs.
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' || c == '(' || c == ')' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
