package lexer

import (
	"testing"
)

// Realistic GreyScript samples of varying complexity
var (
	simpleCode = `x = 1 + 2 * 3`

	mediumCode = `
greet = function(name)
	message = "Hello, " + name + "!"
	print(message)
end function
greet("world")
`

	complexCode = `// port scan helper
import_code("lib/net.src")

scan = function(host, ports)
	open = []
	for port in ports
		sock = connect(host, port)
		if sock != null then
			open.push(port)
			sock.close
		end if
	end for
	return open
end function

results = {}
for host in ["a.example", "b.example"]
	results[host] = scan(host, range(1, 1024))
end for
if results.len > 0 then print("done") else print("empty")
`
)

func BenchmarkLexer_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		l := New(simpleCode)
		for tok, _ := l.NextToken(); tok.Type != EOF; tok, _ = l.NextToken() {
		}
	}
}

func BenchmarkLexer_Medium(b *testing.B) {
	for i := 0; i < b.N; i++ {
		l := New(mediumCode)
		for tok, _ := l.NextToken(); tok.Type != EOF; tok, _ = l.NextToken() {
		}
	}
}

func BenchmarkLexer_Complex(b *testing.B) {
	for i := 0; i < b.N; i++ {
		l := New(complexCode)
		for tok, _ := l.NextToken(); tok.Type != EOF; tok, _ = l.NextToken() {
		}
	}
}
