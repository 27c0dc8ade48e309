package gateway

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    green,
	"POST":   blue,
	"PUT":    cyan,
	"DELETE": yellow,
	"PATCH":  magenta,
}

func colouredMethod(method string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = gray
	}
	return colour + method + resetColor
}
