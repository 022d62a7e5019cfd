package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Storage keys. They match the keys the browser board keeps in localStorage,
// so an exported localStorage dump can be loaded as is.
const (
	KeyTasks  = "tasks"
	KeyNextID = "nextId"
)

const taskSchemaURL = "task.schema.json"

const taskSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "description", "dueDate", "status"],
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "dueDate": {"type": "string"},
    "status": {"enum": ["todo", "in-progress", "done"]}
  }
}`

var compiledTaskSchema = mustCompileTaskSchema()

func mustCompileTaskSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(taskSchemaURL, strings.NewReader(taskSchema)); err != nil {
		panic(fmt.Sprintf("add task schema: %v", err))
	}
	return compiler.MustCompile(taskSchemaURL)
}

func encodeTasks(tasks []Task) (string, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return string(data), nil
}

func encodeNextID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// decodeTasks parses a persisted tasks value. A value that is not a JSON
// array is an error. Array items that fail the task schema are skipped and
// reported in rejected.
func decodeTasks(raw string) (tasks []Task, rejected []error, err error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, nil, fmt.Errorf("parse tasks: %w", err)
	}
	// JSON.parse(null) in the browser yields null; treat it as "nothing stored".
	if items == nil {
		return nil, nil, nil
	}
	tasks = make([]Task, 0, len(items))
	for i, item := range items {
		t, err := decodeTask(item)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("task at index %d: %w", i, err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rejected, nil
}

func decodeTask(item json.RawMessage) (Task, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Task{}, err
	}
	if err := compiledTaskSchema.Validate(doc); err != nil {
		return Task{}, err
	}
	var t Task
	if err := json.Unmarshal(item, &t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func decodeNextID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	var n int64
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return 0, fmt.Errorf("parse nextId: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("parse nextId: %d is not positive", n)
	}
	return n, nil
}
