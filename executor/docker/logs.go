package docker

// SanitizeLog drops every byte outside 7-bit ASCII from captured output.
func SanitizeLog(data []byte) []byte {
	clean := make([]byte, 0, len(data))
	for _, b := range data {
		if b < 0x80 {
			clean = append(clean, b)
		}
	}
	return clean
}

// TruncateLog enforces the log ceiling. Content of at most maxSize bytes is returned unchanged;
// anything larger is replaced by its last n newline-delimited lines. The boolean reports
// whether truncation happened.
func TruncateLog(data []byte, maxSize, n int) ([]byte, bool) {
	if len(data) <= maxSize {
		return data, false
	}
	return tailLines(data, n), true
}

// tailLines returns the last n lines of data. A trailing newline terminates the last line
// rather than starting an empty one.
func tailLines(data []byte, n int) []byte {
	end := len(data)
	if end > 0 && data[end-1] == '\n' {
		end--
	}

	seen := 0
	for i := end - 1; i >= 0; i-- {
		if data[i] != '\n' {
			continue
		}
		seen++
		if seen == n {
			return data[i+1:]
		}
	}
	return data
}
