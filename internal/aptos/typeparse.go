package aptos

import (
	"fmt"
	"strings"
)

// GenericType extracts the type parameter list of a generic Move type:
// "0xd::swap::Pair<A, B>" yields "A,B". Spaces are stripped. Inputs without
// type parameters are returned unchanged.
func GenericType(input string) string {
	input = strings.ReplaceAll(input, " ", "")
	open := strings.IndexByte(input, '<')
	if open < 0 {
		return input
	}
	return input[open+1 : len(input)-1]
}

// TypeParamPair extracts the two type parameters of a generic Move type,
// splitting on the top-level comma so nested generics stay intact.
func TypeParamPair(input string) (string, string, error) {
	params := GenericType(input)

	depth := 0
	for i := 0; i < len(params); i++ {
		switch params[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return params[:i], params[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("no type parameter pair in %q", input)
}
