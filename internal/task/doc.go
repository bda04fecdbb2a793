// Package task models tasks and the in-memory operations over a task collection.
//
// The persisted form of a collection is a JSON array (tasks.json):
//
//	[
//	  {
//	    "id": 1,
//	    "description": "buy milk",
//	    "status": "todo",
//	    "createdAt": "2024-01-01T09:30:00Z",
//	    "updatedAt": ""
//	  }
//	]
//
// # Identifiers
//
// Ids are positive integers assigned by the Repository. A new task receives
// the current maximum id plus one, or 1 when the collection is empty. Ids are
// never renumbered when other tasks are deleted.
//
// # Task Status Values
//
//   - "todo": initial status, never re-entered
//   - "in-progress": task is being worked on
//   - "done": task is complete
//
// Both "in-progress" and "done" can be re-entered; each mark re-stamps
// updatedAt.
//
// # Validation
//
// Validate checks a raw document against the embedded JSON Schema
// (draft 2020-12) and then runs structural checks the schema cannot express,
// such as id uniqueness. ValidateMinimal runs only the structural checks on a
// decoded Collection.
package task
