package syllabus

import (
	"coursegen/services/llmclient"
)

const (
	CONCEPT_GENERATION_PROMPT = `You are planning the %s module of a course.

Course: %s
Subject: %s
%sList every concept a learner must master to reach the %s level of this subject. Use short concept names only (2-4 words each), ordered from easiest to hardest. Aim for %d to %d concepts.

%sUse the submit_concepts function to return the list.`

	CONCEPT_AUGMENT_PROMPT = `You are expanding the %s module of a course on %s.

The module currently covers these concepts:
%s

Propose at least %d NEW concepts for this level that are not already covered. Use short concept names only (2-4 words each), ordered from easiest to hardest.

Do NOT repeat any of these concepts: %s

Use the submit_concepts function to return only the new concepts.`

	OUTLINE_PROMPT = `Plan the syllabus for a course.

Course: %s
Subject: %s
%sProduce between %d and %d module titles covering the subject from first principles to advanced practice, in teaching order. Titles should be short and specific.

Use the submit_outline function to return the titles.`

	MODULE_GENERATION_PROMPT = `Specify one learning module for a course on %s.

Module title: %s

Provide %d to %d learning objectives as short concept names (2-4 words each), ordered from easiest to hardest, and an estimated duration between %d and %d minutes.

Use the submit_module function to return the module.%s`
)

// ConceptListParams is the schema for both concept generation and
// augmentation calls.
type ConceptListParams struct {
	Concepts []string `json:"concepts" jsonschema:"required,description=Short concept names ordered easiest to hardest"`
}

type OutlineParams struct {
	Titles []string `json:"titles" jsonschema:"required,description=Module titles in teaching order"`
}

type ModuleParams struct {
	Title            string   `json:"title" jsonschema:"required,description=The module title"`
	Objectives       []string `json:"objectives" jsonschema:"required,description=Short concept names ordered easiest to hardest"`
	EstimatedMinutes int      `json:"estimated_minutes" jsonschema:"required,description=Estimated completion time in minutes"`
}

var (
	conceptTool = llmclient.ToolFor[ConceptListParams]("submit_concepts",
		"Submit the ordered list of concept names for this difficulty level")

	outlineTool = llmclient.ToolFor[OutlineParams]("submit_outline",
		"Submit the ordered list of module titles for the course")

	moduleTool = llmclient.ToolFor[ModuleParams]("submit_module",
		"Submit the fully specified learning module")
)
