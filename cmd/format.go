// Copyright 2024 Kelvin Clement Mwinuka
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/echovault/sugarclient/sugarclient"
)

// splitArgs splits a command line on whitespace. Single and double quotes
// group words, and double quoted strings understand \n, \r, \t, \\, \" and \xHH.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   byte
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			case 'x':
				if i+2 >= len(line) {
					return nil, errors.New("invalid \\x escape")
				}
				b, err := strconv.ParseUint(line[i+1:i+3], 16, 8)
				if err != nil {
					return nil, fmt.Errorf("invalid \\x escape: %v", err)
				}
				current.WriteByte(byte(b))
				i += 2
			default:
				current.WriteByte(line[i])
			}
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			current.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteByte(c)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// formatReply renders a reply the way redis-cli does.
func formatReply(reply sugarclient.Reply) string {
	return strings.Join(formatLines(reply), "\n")
}

func formatLines(reply sugarclient.Reply) []string {
	switch reply.Kind {
	case sugarclient.KindNull:
		return []string{"(nil)"}
	case sugarclient.KindInteger:
		return []string{fmt.Sprintf("(integer) %d", reply.Int)}
	case sugarclient.KindStatus:
		return []string{string(reply.Str)}
	case sugarclient.KindError:
		return []string{fmt.Sprintf("(error) %s", reply.Str)}
	case sugarclient.KindBulk:
		return []string{strconv.Quote(string(reply.Str))}
	}

	if len(reply.Elems) == 0 {
		return []string{"(empty array)"}
	}
	width := len(strconv.Itoa(len(reply.Elems)))
	var lines []string
	for i, elem := range reply.Elems {
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		pad := strings.Repeat(" ", len(prefix))
		for j, line := range formatLines(elem) {
			if j == 0 {
				lines = append(lines, prefix+line)
			} else {
				lines = append(lines, pad+line)
			}
		}
	}
	return lines
}

// formatHash renders a hash as one "field => value" line per field.
func formatHash(hash *sugarclient.Hash) string {
	if hash == nil {
		return "(nil)"
	}
	lines := make([]string, 0, hash.Len())
	for _, field := range hash.Fields() {
		lines = append(lines, fmt.Sprintf("%s => %s", strconv.Quote(string(field.Key)), strconv.Quote(string(field.Value))))
	}
	return strings.Join(lines, "\n")
}

// formatValue renders a script result.
func formatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "(nil)"
	case int64:
		return fmt.Sprintf("(integer) %d", value)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case string:
		return strconv.Quote(value)
	case []interface{}:
		lines := make([]string, len(value))
		for i, elem := range value {
			lines[i] = fmt.Sprintf("%d) %s", i+1, formatValue(elem))
		}
		return strings.Join(lines, "\n")
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		lines := make([]string, len(keys))
		for i, key := range keys {
			lines[i] = fmt.Sprintf("%s => %s", strconv.Quote(key), formatValue(value[key]))
		}
		return strings.Join(lines, "\n")
	}
	return fmt.Sprint(v)
}
