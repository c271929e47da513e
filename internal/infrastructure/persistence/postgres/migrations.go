package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_and_subjects",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_lesson_series",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_lessons",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS AND SUBJECTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('teacher', 'student', 'parent'))
);

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LESSON SERIES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS lesson_series (
    id UUID PRIMARY KEY,
    teacher_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    frequency VARCHAR(10) NOT NULL,
    day_of_week SMALLINT NOT NULL,
    time_of_day VARCHAR(5) NOT NULL,
    duration_minutes INTEGER NOT NULL,
    price_rub INTEGER NOT NULL DEFAULT 0,
    is_free BOOLEAN NOT NULL DEFAULT FALSE,
    max_occurrences INTEGER,
    end_date TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_frequency CHECK (frequency IN ('weekly', 'biweekly')),
    CONSTRAINT valid_day_of_week CHECK (day_of_week BETWEEN 0 AND 6),
    CONSTRAINT valid_series_duration CHECK (duration_minutes > 0),
    CONSTRAINT valid_series_price CHECK (price_rub >= 0),
    CONSTRAINT valid_max_occurrences CHECK (max_occurrences IS NULL OR max_occurrences > 0)
);

CREATE INDEX IF NOT EXISTS idx_lesson_series_teacher ON lesson_series(teacher_id);

-- Persistent roster used as the template for future occurrences
CREATE TABLE IF NOT EXISTS series_students (
    series_id UUID NOT NULL REFERENCES lesson_series(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    price_rub INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (series_id, student_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS series_students;
DROP TABLE IF EXISTS lesson_series;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: LESSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS lessons (
    id UUID PRIMARY KEY,
    teacher_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    series_id UUID REFERENCES lesson_series(id) ON DELETE SET NULL,
    start_at TIMESTAMP WITH TIME ZONE NOT NULL,
    duration_minutes INTEGER NOT NULL,
    price_rub INTEGER NOT NULL DEFAULT 0,
    is_free BOOLEAN NOT NULL DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'planned',
    cancelled_by VARCHAR(10),
    cancellation_reason VARCHAR(10),
    teacher_note TEXT NOT NULL DEFAULT '',
    student_note TEXT NOT NULL DEFAULT '',
    report TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_lesson_status CHECK (status IN ('planned', 'done', 'cancelled', 'rescheduled')),
    CONSTRAINT valid_cancelled_by CHECK (cancelled_by IS NULL OR cancelled_by IN ('teacher', 'student')),
    CONSTRAINT valid_cancellation_reason CHECK (cancellation_reason IS NULL OR cancellation_reason IN ('illness', 'other')),
    CONSTRAINT valid_lesson_duration CHECK (duration_minutes > 0),
    CONSTRAINT valid_lesson_price CHECK (price_rub >= 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_series_start ON lessons(series_id, start_at) WHERE series_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_lessons_teacher_start ON lessons(teacher_id, start_at DESC);

CREATE TABLE IF NOT EXISTS lesson_students (
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    price_rub INTEGER NOT NULL DEFAULT 0,
    attendance VARCHAR(10) NOT NULL DEFAULT 'unknown',
    payment_status VARCHAR(10) NOT NULL DEFAULT 'unpaid',
    rating SMALLINT,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (lesson_id, student_id),

    CONSTRAINT valid_attendance CHECK (attendance IN ('unknown', 'attended', 'missed')),
    CONSTRAINT valid_payment_status CHECK (payment_status IN ('unpaid', 'paid', 'prepaid')),
    CONSTRAINT valid_rating CHECK (rating IS NULL OR rating BETWEEN 1 AND 5)
);

CREATE INDEX IF NOT EXISTS idx_lesson_students_student ON lesson_students(student_id);
CREATE INDEX IF NOT EXISTS idx_lesson_students_unpaid ON lesson_students(student_id) WHERE payment_status = 'unpaid';
`

const migration003Down = `
DROP TABLE IF EXISTS lesson_students;
DROP TABLE IF EXISTS lessons;
`
