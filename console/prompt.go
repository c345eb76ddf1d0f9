package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"student-records/models"
)

// errInputClosed ввод закончился посреди диалога
var errInputClosed = errors.New("input closed")

// prompter читает ответы построчно и переспрашивает при неверном вводе
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) println(args ...interface{}) {
	fmt.Fprintln(p.out, args...)
}

func (p *prompter) line(prompt string) (string, error) {
	p.printf("%s", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// nonEmpty переспрашивает, пока не будет введено непустое значение
func (p *prompter) nonEmpty(prompt string) (string, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		p.println("A value is required.")
	}
}

func (p *prompter) integer(prompt string) (int, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, nil
		}
		p.println("Please enter a whole number.")
	}
}

func (p *prompter) gender(prompt string) (models.Gender, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		g, err := models.ParseGender(s)
		if err == nil {
			return g, nil
		}
		p.println("Gender must be M or F.")
	}
}

func (p *prompter) birthDate(prompt string) (time.Time, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return time.Time{}, err
		}
		d, err := models.ParseBirthDate(s)
		if err == nil {
			return d, nil
		}
		p.println("Invalid date, use dd-MM-yyyy.")
	}
}

// existingGroup переспрашивает, пока exists не подтвердит название группы
func (p *prompter) existingGroup(ctx context.Context, prompt string, exists func(context.Context, string) (bool, error)) (string, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		name := models.NormalizeName(s)
		if name == "" {
			continue
		}
		ok, err := exists(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
		p.printf("Group %s does not exist.\n", name)
	}
}

func (p *prompter) yes(prompt string) bool {
	s, err := p.line(prompt)
	if err != nil {
		return false
	}
	switch strings.ToLower(s) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}
