package repository

const (
	// luaAddPendingIfExists 待处理申请写入（仅在 key 存在时增量更新）
	// KEYS[1]: 待处理申请 ZSet (receiver 维度)
	// ARGV[1]: score(created_at unix)
	// ARGV[2]: member(sender_uuid)
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示写入成功，0 表示 key 不存在
	luaAddPendingIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('ZREM', KEYS[1], '__EMPTY__')
	redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`

	// luaRemovePendingIfExists 待处理申请移除（仅在 key 存在时增量更新）
	// KEYS[1]: 待处理申请 ZSet
	// ARGV[1]: member(sender_uuid)
	// ARGV[2]: 过期时间（秒）
	// 返回: 1 表示执行成功，0 表示 key 不存在
	luaRemovePendingIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('ZREM', KEYS[1], ARGV[1])
	redis.call('ZREM', KEYS[1], '__EMPTY__')
	if redis.call('ZCARD', KEYS[1]) == 0 then
		redis.call('ZADD', KEYS[1], 0, '__EMPTY__')
	end
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

	// luaAddFriendIfExists 好友集合写入（仅在 key 存在时增量更新）
	// KEYS[1]: 好友关系 Set
	// ARGV[1]: member(friend_uuid)
	// ARGV[2]: 过期时间（秒）
	luaAddFriendIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('SREM', KEYS[1], '__EMPTY__')
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

	// luaRemoveFriendIfExists 好友集合移除（仅在 key 存在时增量更新）
	// KEYS[1]: 好友关系 Set
	// ARGV[1]: member(friend_uuid)
	// ARGV[2]: 过期时间（秒）
	luaRemoveFriendIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('SREM', KEYS[1], ARGV[1])
	redis.call('SREM', KEYS[1], '__EMPTY__')
	if redis.call('SCARD', KEYS[1]) == 0 then
		redis.call('SADD', KEYS[1], '__EMPTY__')
	end
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

	// luaClearRecentIfMatch 最近联系人指针条件清除
	// KEYS[1]: 最近联系人 key
	// ARGV[1]: friend_uuid
	// 返回: 1 表示已清除，0 表示指针不指向该好友
	luaClearRecentIfMatch = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`
)
