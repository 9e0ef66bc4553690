// renderpreview renders markdown-subset text from stdin to the HTML fragment
// the chat transcript would display. Useful for eyeballing advisor output:
//
//	echo '## Treatment\n- Apply fungicide' | go run ./cmd/tools/renderpreview
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cropcareai/backend/internal/render"
)

func main() {
	asUser := flag.Bool("user", false, "treat input as user content (escape instead of render)")
	flag.Parse()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("failed to read stdin: %v", err)
	}

	if *asUser {
		fmt.Println(render.EscapeText(string(input)))
		return
	}
	fmt.Println(render.Fragment(string(input)))
}
