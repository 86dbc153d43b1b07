package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"codegateway/internal/memorystore"
)

// RegisterWorkflowTools wires the workflow tools supplemented from
// original_source's serena-tools factory.rs workflow_tools() set, whose
// prompt bodies are grounded verbatim on serena-core/src/prompts.rs
// (re-expressed here as Go string constants rather than translated Rust).
func RegisterWorkflowTools(registry *Registry, store *memorystore.Store) error {
	defs := []Definition{
		checkOnboardingPerformedDef(store),
		onboardingDef(),
		thinkAboutCollectedInformationDef(),
		thinkAboutTaskAdherenceDef(),
		thinkAboutWhetherYouAreDoneDef(),
		summarizeChangesDef(),
		prepareForNewConversationDef(),
		initialInstructionsDef(),
	}
	for _, def := range defs {
		if err := registry.Add(def); err != nil {
			return fmt.Errorf("registering %s: %w", def.Name, err)
		}
	}
	return nil
}

func staticTextDef(name, description, prompt string) Definition {
	return Definition{
		Name:        name,
		Description: description,
		Tags:        []string{"workflow"},
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			return Success(map[string]any{"prompt": prompt})
		},
	}
}

func checkOnboardingPerformedDef(store *memorystore.Store) Definition {
	return Definition{
		Name:        "check_onboarding_performed",
		Description: "Reports whether project onboarding has already happened, inferred from whether any memory has been written",
		Tags:        []string{"workflow"},
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			performed := len(store.List()) > 0
			return Success(map[string]any{"onboarding_performed": performed})
		},
	}
}

func onboardingDef() Definition {
	system := runtime.GOOS
	prompt := fmt.Sprintf(`You are viewing the project for the first time.
Your task is to assemble relevant high-level information about the project which
will be saved to memory files in the following steps.
The information should be sufficient to understand what the project is about,
and the most important commands for developing code.
The project is being developed on the system: %s.

You need to identify at least the following information:
* the project's purpose
* the tech stack used
* the code style and conventions used (including naming, type hints, docstrings, etc.)
* which commands to run when a task is completed (linting, formatting, testing, etc.)
* the rough structure of the codebase
* the commands for testing, formatting, and linting
* the commands for running the entrypoints of the project
* the util commands for the system, like git, ls, cd, grep, find, etc. Keep in mind that the system is %s,
  so the commands might be different than on a regular unix system.
* whether there are particular guidelines, styles, design patterns, etc. that one should know about

This list is not exhaustive, you can add more information if you think it is relevant.

For doing that, you will need to acquire information about the project with the corresponding tools.
Read only the necessary files and directories to avoid loading too much data into memory.
If you cannot find everything you need from the project itself, you should ask the user for more information.

After collecting all the information, you will use the write_memory tool (in multiple calls) to save it to various memory files.
A particularly important memory file will be the suggested_commands.md file, which should contain
a list of commands that the user should know about to develop code in this project.
Moreover, you should create memory files for the style and conventions and a dedicated memory file for
what should be done when a task is completed.
Important: after done with the onboarding task, remember to call write_memory to save the collected information!`, system, system)

	return staticTextDef("onboarding", "Returns the onboarding prompt guiding first-time project exploration", prompt)
}

func thinkAboutCollectedInformationDef() Definition {
	return staticTextDef(
		"think_about_collected_information",
		"Returns a prompt prompting reflection on whether enough information has been gathered for the current task",
		`Have you collected all the information you need for solving the current task? If not, can the missing information be acquired by using the available tools,
in particular the tools related to symbol discovery? Or do you need to ask the user for more information?
Think about it step by step and give a summary of the missing information and how it could be acquired.`,
	)
}

func thinkAboutTaskAdherenceDef() Definition {
	return staticTextDef(
		"think_about_task_adherence",
		"Returns a prompt prompting reflection on whether work is still aligned with the original task",
		`Are you deviating from the task at hand? Do you need any additional information to proceed?
Have you loaded all relevant memory files to see whether your implementation is fully aligned with the
code style, conventions, and guidelines of the project? If not, adjust your implementation accordingly
before modifying any code into the codebase.
Note that it is better to stop and ask the user for clarification
than to perform large changes which might not be aligned with the user's intentions.
If you feel like the conversation is deviating too much from the original task, apologize and suggest to the user
how to proceed. If the conversation became too long, create a summary of the current progress and suggest to the user
to start a new conversation based on that summary.`,
	)
}

func thinkAboutWhetherYouAreDoneDef() Definition {
	return staticTextDef(
		"think_about_whether_you_are_done",
		"Returns a prompt prompting reflection on whether the task is actually complete",
		`Have you already performed all the steps required by the task? Is it appropriate to run tests and linting, and if so,
have you done that already? Is it appropriate to adjust non-code files like documentation and config and have you done that already?
Should new tests be written to cover the changes?
Note that a task that is just about exploring the codebase does not require running tests or linting.
Read the corresponding memory files to see what should be done when a task is completed.`,
	)
}

func summarizeChangesDef() Definition {
	return staticTextDef(
		"summarize_changes",
		"Returns a prompt guiding a summary of the changes made so far",
		`Summarize all the changes you have made to the codebase over the course of the conversation.
Explore the diff if needed (e.g. by using git diff) to ensure that you have not missed anything.
Explain whether and how the changes are covered by tests. Explain how to best use the new code, how to understand it,
which existing code it affects and interacts with. Are there any dangers (like potential breaking changes or potential new problems)
that the user should be aware of? Should any new documentation be written or existing documentation updated?
You can use tools to explore the codebase prior to writing the summary, but don't write any new code in this step until
the summary is complete.`,
	)
}

func prepareForNewConversationDef() Definition {
	return staticTextDef(
		"prepare_for_new_conversation",
		"Returns a prompt guiding a handoff summary to memory before context runs out",
		`You have not yet completed the current task but we are running out of context.
Imagine that you are handing over the task to another person who has access to the
same tools and memory files as you do, but has not been part of the conversation so far.
Write a summary that can be used in the next conversation to a memory file using the write_memory tool.`,
	)
}

func initialInstructionsDef() Definition {
	return staticTextDef(
		"initial_instructions",
		"Returns the system-prompt-style instructions manual describing how to use this toolbox",
		`# Instructions Manual

You are an AI assistant equipped with this gateway's toolbox for software development tasks.

## Core Principles

1. Check Onboarding First: Before starting any task, check if project onboarding was performed using check_onboarding_performed. If not, run the onboarding tool.
2. Use Memory: Read and write project memories to maintain context across conversations.
3. Think Before Acting: Use thinking tools to reflect on your approach:
   - think_about_collected_information after gathering information
   - think_about_task_adherence before making code changes
   - think_about_whether_you_are_done when completing tasks
4. Explore with Tools: Use symbol and file tools to understand the codebase before making changes.
5. Summarize Changes: After completing non-trivial tasks, use summarize_changes to document what was done.

## Available Tool Categories

- File Tools: read_file, create_text_file, list_directory, find_file, search_files, replace_content, delete_lines, insert_at_line, replace_lines
- Symbol Tools: find_symbol, get_symbols_overview, find_referencing_symbols, replace_symbol_body, rename_symbol, insert_after_symbol, insert_before_symbol
- Memory Tools: read_memory, write_memory, list_memories, delete_memory, edit_memory
- Workflow Tools: onboarding, check_onboarding_performed, summarize_changes, prepare_for_new_conversation
- Command Tools: execute_shell_command (for running tests, linting, etc.)

## Best Practices

- Always validate changes by running tests when appropriate
- Follow the project's code style and conventions (stored in memory files)
- Ask for clarification when requirements are unclear
- Keep track of what has been done and what remains`,
	)
}
