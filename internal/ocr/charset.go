// Package ocr recognizes single lines of text with a converted
// PP-OCRv4 recognition model.
package ocr

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Charset maps CTC class indices to characters. Class 0 is the blank
// token; class i maps to the dictionary's line i-1.
type Charset struct {
	chars []string
}

// LoadCharset reads a character dictionary file, one character per line.
func LoadCharset(path string) (*Charset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open charset: %w", err)
	}
	defer f.Close()
	return ReadCharset(f)
}

// ReadCharset parses a character dictionary from a reader.
func ReadCharset(r io.Reader) (*Charset, error) {
	var chars []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		chars = append(chars, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read charset: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("charset is empty")
	}
	return &Charset{chars: chars}, nil
}

// Len returns the number of dictionary characters, excluding blank.
func (c *Charset) Len() int { return len(c.chars) }

// NumClasses returns the model's class count: every dictionary
// character plus the blank.
func (c *Charset) NumClasses() int { return len(c.chars) + 1 }

// Char returns the character for a non-blank class index.
func (c *Charset) Char(class int) (string, error) {
	if class < 1 || class > len(c.chars) {
		return "", fmt.Errorf("class %d out of range [1, %d]", class, len(c.chars))
	}
	return c.chars[class-1], nil
}
