// Package console интерактивное меню поверх repository.Store и service.Transfer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
	"student-records/service"
)

const menu = `
===== STUDENT RECORDS =====
 1. Insert student
 2. Insert group
 3. List students
 4. Export students to text file
 5. Import students from text file
 6. Rename student by NIA
 7. Delete student by NIA
 8. Delete students of a group
 9. Export all groups to XML
10. Import groups from XML
11. List students of a group
12. List students with all details
13. Change student group
14. Export one group to XML
15. Export all groups to JSON
16. Import groups from JSON
17. Export rosters to Excel
 0. Exit
`

type Console struct {
	store    repository.Store
	transfer *service.Transfer
	prompt   *prompter
	logger   *zap.Logger
}

func New(store repository.Store, files service.Config, in io.Reader, out io.Writer, logger *zap.Logger, scope tally.Scope) *Console {
	c := &Console{
		store:  store,
		prompt: &prompter{in: bufio.NewScanner(in), out: out},
		logger: logger.Named("general"),
	}
	c.transfer = service.NewTransfer(store, files, c.confirmOverwrite, logger, scope)
	return c
}

func (c *Console) confirmOverwrite(path string) bool {
	return c.prompt.yes(fmt.Sprintf("File %s already exists. Overwrite? (y/n): ", path))
}

// Run показывает меню до выбора 0 или конца ввода
func (c *Console) Run(ctx context.Context) error {
	actions := map[int]func(context.Context) error{
		1:  c.insertStudent,
		2:  c.insertGroup,
		3:  func(ctx context.Context) error { return c.listStudents(ctx, false) },
		4:  c.exportText,
		5:  c.importText,
		6:  c.renameStudent,
		7:  c.deleteStudent,
		8:  c.deleteStudentsByGroup,
		9:  c.exportXML,
		10: c.importXML,
		11: c.listStudentsByGroup,
		12: func(ctx context.Context) error { return c.listStudents(ctx, true) },
		13: c.changeStudentGroup,
		14: c.exportGroupXML,
		15: c.exportJSON,
		16: c.importJSON,
		17: c.exportXLSX,
	}

	for {
		c.prompt.println(menu)
		option, err := c.prompt.integer("Choose an option: ")
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if option == 0 {
			c.prompt.println("Bye.")
			return nil
		}

		action, ok := actions[option]
		if !ok {
			c.prompt.println("Unknown option.")
			continue
		}

		err = action(ctx)
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			c.report(err)
		}
	}
}

// report печатает понятное сообщение; подробности уже записаны в лог хранилищем
func (c *Console) report(err error) {
	var msg string
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		msg = "Student not found."
	case errors.Is(err, repository.ErrGroupNotFound):
		msg = "Group not found."
	case errors.Is(err, repository.ErrGroupExists):
		msg = "Group already exists."
	case errors.Is(err, repository.ErrGroupEmpty):
		msg = "There are no students in that group."
	case errors.Is(err, repository.ErrSameGroup):
		msg = "The student already belongs to that group."
	case errors.Is(err, repository.ErrNoStudents):
		msg = "There are no students."
	case errors.Is(err, repository.ErrNoGroups):
		msg = "There are no groups."
	case errors.Is(err, repository.ErrUnsupported):
		msg = "Operation not supported."
	case errors.Is(err, service.ErrNothingToExport):
		msg = "Nothing to export."
	case errors.Is(err, service.ErrNothingImported):
		msg = "No records were imported."
	case errors.Is(err, service.ErrCancelled):
		msg = "Operation cancelled."
	case errors.Is(err, models.ErrEmptyName), errors.Is(err, models.ErrEmptyGroupName):
		msg = "Name is required."
	default:
		msg = "Operation failed, see the log for details."
		c.logger.Error("❌ Operation failed", zap.Error(err))
	}
	c.prompt.println(msg)
}

func (c *Console) insertStudent(ctx context.Context) error {
	p := c.prompt
	first, err := p.nonEmpty("First name: ")
	if err != nil {
		return err
	}
	last, err := p.nonEmpty("Last name: ")
	if err != nil {
		return err
	}
	gender, err := p.gender("Gender (M/F): ")
	if err != nil {
		return err
	}
	born, err := p.birthDate("Birth date (dd-MM-yyyy): ")
	if err != nil {
		return err
	}
	program, err := p.line("Program: ")
	if err != nil {
		return err
	}
	course, err := p.line("Course: ")
	if err != nil {
		return err
	}
	if err := c.printGroups(ctx); err != nil {
		return err
	}
	group, err := p.existingGroup(ctx, "Group name: ", c.store.GroupExists)
	if err != nil {
		return err
	}

	st := &models.Student{
		FirstName: first,
		LastName:  last,
		Gender:    gender,
		BirthDate: born,
		Program:   program,
		Course:    course,
		Group:     &models.Group{Name: group},
	}
	if err := c.store.InsertStudent(ctx, st); err != nil {
		return err
	}
	p.printf("Student inserted with NIA %d.\n", st.NIA)
	return nil
}

func (c *Console) insertGroup(ctx context.Context) error {
	name, err := c.prompt.nonEmpty("Group name: ")
	if err != nil {
		return err
	}
	g := &models.Group{Name: name}
	if err := c.store.InsertGroup(ctx, g); err != nil {
		return err
	}
	c.prompt.printf("Group %s inserted.\n", g.Name)
	return nil
}

func (c *Console) printStudent(st models.Student, verbose bool) {
	if !verbose {
		c.prompt.printf("%d - %s %s\n", st.NIA, st.FirstName, st.LastName)
		return
	}
	group := st.GroupName()
	if group == "" {
		group = "-"
	}
	c.prompt.printf("NIA: %d | %s %s | %s | %s | %s %s | group: %s\n",
		st.NIA, st.FirstName, st.LastName, st.Gender,
		st.BirthDate.Format(models.DateLayout), st.Program, st.Course, group)
}

// listStudents в кратком режиме предлагает выбрать NIA для подробностей, 0 для выхода
func (c *Console) listStudents(ctx context.Context, verbose bool) error {
	students, err := c.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	for _, st := range students {
		c.printStudent(st, verbose)
	}
	if verbose {
		return nil
	}

	for {
		nia, err := c.prompt.integer("NIA for details (0 to go back): ")
		if err != nil {
			return err
		}
		if nia == 0 {
			return nil
		}
		st, found, err := c.store.GetStudent(ctx, nia)
		if err != nil {
			return err
		}
		if !found {
			c.prompt.println("Student not found.")
			continue
		}
		c.printStudent(st, true)
	}
}

func (c *Console) printGroups(ctx context.Context) error {
	groups, err := c.store.ListGroups(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	c.prompt.printf("Groups: %s\n", strings.Join(names, ", "))
	return nil
}

func (c *Console) renameStudent(ctx context.Context) error {
	nia, err := c.prompt.integer("NIA: ")
	if err != nil {
		return err
	}
	name, err := c.prompt.nonEmpty("New first name: ")
	if err != nil {
		return err
	}
	if err := c.store.UpdateStudentName(ctx, nia, name); err != nil {
		return err
	}
	c.prompt.println("Student renamed.")
	return nil
}

func (c *Console) deleteStudent(ctx context.Context) error {
	nia, err := c.prompt.integer("NIA: ")
	if err != nil {
		return err
	}
	if err := c.store.DeleteStudent(ctx, nia); err != nil {
		return err
	}
	c.prompt.println("Student deleted.")
	return nil
}

func (c *Console) deleteStudentsByGroup(ctx context.Context) error {
	if err := c.printGroups(ctx); err != nil {
		return err
	}
	name, err := c.prompt.nonEmpty("Group name: ")
	if err != nil {
		return err
	}
	n, err := c.store.DeleteStudentsByGroup(ctx, name)
	if err != nil {
		return err
	}
	c.prompt.printf("%d students deleted.\n", n)
	return nil
}

func (c *Console) listStudentsByGroup(ctx context.Context) error {
	if err := c.printGroups(ctx); err != nil {
		return err
	}
	name, err := c.prompt.nonEmpty("Group name: ")
	if err != nil {
		return err
	}
	students, err := c.store.ListStudentsByGroup(ctx, name)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		c.prompt.println("There are no students in that group.")
		return nil
	}
	for _, st := range students {
		c.printStudent(st, true)
	}
	return nil
}

// changeStudentGroup показывает учеников, спрашивает NIA и новую группу
func (c *Console) changeStudentGroup(ctx context.Context) error {
	students, err := c.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	for _, st := range students {
		c.printStudent(st, false)
	}

	nia, err := c.prompt.integer("NIA: ")
	if err != nil {
		return err
	}
	if _, found, err := c.store.StudentGroupID(ctx, nia); err != nil {
		return err
	} else if !found {
		return repository.ErrStudentNotFound
	}

	if err := c.printGroups(ctx); err != nil {
		return err
	}
	name, err := c.prompt.nonEmpty("New group name: ")
	if err != nil {
		return err
	}
	if err := c.store.ChangeStudentGroup(ctx, nia, name); err != nil {
		return err
	}
	c.prompt.println("Student group changed.")
	return nil
}

func (c *Console) printReport(report service.ImportReport) {
	c.prompt.printf("%d records imported, %d groups created, %d skipped.\n",
		report.Inserted, report.GroupsCreated, report.SkippedCount())
}

func (c *Console) exportText(ctx context.Context) error {
	n, err := c.transfer.ExportText(ctx)
	if err != nil {
		return err
	}
	c.prompt.printf("%d students exported.\n", n)
	return nil
}

func (c *Console) importText(ctx context.Context) error {
	report, err := c.transfer.ImportText(ctx)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *Console) exportXML(ctx context.Context) error {
	n, err := c.transfer.ExportXML(ctx)
	if err != nil {
		return err
	}
	c.prompt.printf("%d groups exported.\n", n)
	return nil
}

func (c *Console) importXML(ctx context.Context) error {
	path, err := c.prompt.line("XML file (empty for default): ")
	if err != nil {
		return err
	}
	report, err := c.transfer.ImportXML(ctx, path)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *Console) exportGroupXML(ctx context.Context) error {
	if err := c.printGroups(ctx); err != nil {
		return err
	}
	name, err := c.prompt.nonEmpty("Group name: ")
	if err != nil {
		return err
	}
	path, err := c.transfer.ExportGroupXML(ctx, name)
	if err != nil {
		return err
	}
	c.prompt.printf("Group exported to %s.\n", path)
	return nil
}

func (c *Console) exportJSON(ctx context.Context) error {
	n, err := c.transfer.ExportJSON(ctx)
	if err != nil {
		return err
	}
	c.prompt.printf("%d groups exported.\n", n)
	return nil
}

func (c *Console) importJSON(ctx context.Context) error {
	path, err := c.prompt.line("JSON file (empty for default): ")
	if err != nil {
		return err
	}
	report, err := c.transfer.ImportJSON(ctx, path)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *Console) exportXLSX(ctx context.Context) error {
	n, err := c.transfer.ExportXLSX(ctx)
	if err != nil {
		return err
	}
	c.prompt.printf("%d group sheets exported.\n", n)
	return nil
}
