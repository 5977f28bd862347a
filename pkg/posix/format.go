package posix

import "fmt"

// Printf implements hal.Formatter.
func (p *Platform) Printf(format string, args ...any) {
	p.consoleMu.Lock()
	defer p.consoleMu.Unlock()
	fmt.Fprintf(p.opts.console, format, args...)
}

// Snprintf implements hal.Formatter.
func (p *Platform) Snprintf(buf []byte, format string, args ...any) int {
	return p.Vsnprintf(buf, format, args)
}

// Vsnprintf implements hal.Formatter.
func (p *Platform) Vsnprintf(buf []byte, format string, args []any) int {
	return vsnprintf(buf, format, args)
}

func vsnprintf(buf []byte, format string, args []any) int {
	s := fmt.Sprintf(format, args...)
	if len(buf) == 0 {
		return len(s)
	}
	n := copy(buf[:len(buf)-1], s)
	buf[n] = 0
	return len(s)
}
